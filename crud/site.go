package crud

import (
	"context"
	"crypto/md5"
	"math/big"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"animeHub/domain"
)

var fortunes = []domain.Fortune{
	{ID: 1, Title: "大吉", Content: "今天是个好日子,适合追番和交友!", Type: "great", Icon: "🎉"},
	{ID: 2, Title: "中吉", Content: "今天运气不错,可能会遇到志同道合的朋友!", Type: "good", Icon: "✨"},
	{ID: 3, Title: "小吉", Content: "平稳的一天,适合安静地看动漫。", Type: "good", Icon: "🌟"},
	{ID: 4, Title: "吉", Content: "今天适合发帖分享你的心情!", Type: "good", Icon: "😊"},
	{ID: 5, Title: "末吉", Content: "虽然普通,但小确幸会出现。", Type: "normal", Icon: "🍀"},
	{ID: 6, Title: "凶", Content: "今天小心剧透!建议减少社交。", Type: "bad", Icon: "⚠️"},
}

var developers = []domain.Developer{
	{
		ID:          1,
		Name:        "主开发者",
		Role:        "全栈工程师",
		Avatar:      "https://api.dicebear.com/7.x/avataaars/svg?seed=developer1",
		Github:      "https://github.com/developer1",
		Email:       "dev@animehub.com",
		Description: "负责项目架构和核心功能开发",
	},
	{
		ID:          2,
		Name:        "UI设计师",
		Role:        "视觉设计师",
		Avatar:      "https://api.dicebear.com/7.x/avataaars/svg?seed=designer",
		Email:       "designer@animehub.com",
		Description: "负责界面设计和用户体验",
	},
}

// SiteService serves the public counters and the static site content.
// It implements the domain.SiteService interface.
type SiteService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSiteService returns an instance of SiteService.
func NewSiteService(db *gorm.DB, now func() time.Time) *SiteService {
	return &SiteService{db: db, now: now}
}

var _ domain.SiteService = &SiteService{}

// Stats returns the total number of posts and users, and the posts written since midnight UTC+8.
func (ss *SiteService) Stats(ctx context.Context) (*domain.SiteStats, error) {
	db := ss.db.WithContext(ctx)
	var s domain.SiteStats
	if err := db.Model(&domain.Post{}).Count(&s.TotalPosts).Error; err != nil {
		return nil, errors.WithMessage(err, "count posts")
	}
	today := domain.StartOfDay(ss.now()).UTC()
	if err := db.Model(&domain.Post{}).Where("created_at >= ?", today).Count(&s.TodayPosts).Error; err != nil {
		return nil, errors.WithMessage(err, "count today's posts")
	}
	if err := db.Model(&domain.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, errors.WithMessage(err, "count users")
	}
	return &s, nil
}

// Fortune picks the viewer's fortune of the day. The pick is stable for a
// viewer and a UTC+8 date, and all anonymous visitors share one.
func (ss *SiteService) Fortune(viewer *domain.User) *domain.Fortune {
	seed := "guest"
	if viewer != nil {
		seed = strconv.Itoa(viewer.ID)
	}
	seed += "_" + ss.now().In(domain.Beijing).Format("2006-01-02")
	sum := md5.Sum([]byte(seed))
	n := new(big.Int).SetBytes(sum[:])
	i := new(big.Int).Mod(n, big.NewInt(int64(len(fortunes)))).Int64()
	f := fortunes[i]
	return &f
}

// Developers returns the people behind the site.
func (ss *SiteService) Developers() []domain.Developer {
	out := make([]domain.Developer, len(developers))
	copy(out, developers)
	return out
}
