package crud

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"animeHub/domain"
)

// FollowService manages Follows, the directed edges between users.
// It implements the domain.FollowService interface.
type FollowService struct {
	followGorm
}

// followGorm runs follow operations on the database. Both sides of the graph are
// lookups over the same table: by follower_id and by following_id.
type followGorm struct {
	db     *gorm.DB
	limits domain.PageLimits
	edges  *toggler[domain.Follow]
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB, limits domain.PageLimits) *FollowService {
	return &FollowService{
		followGorm{
			db:     db,
			limits: limits,
			edges: &toggler[domain.Follow]{
				db:           db,
				target:       &domain.User{},
				targetName:   "user",
				actorColumn:  "follower_id",
				targetColumn: "following_id",
				noSelf:       "You cannot follow yourself.",
				newRow: func(follower, following int) *domain.Follow {
					return &domain.Follow{FollowerID: follower, FollowingID: following}
				},
			},
		},
	}
}

// Ensure the FollowService struct properly implements the domain.FollowService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.FollowService = &FollowService{}

// Toggle follows a user, or unfollows them if the edge already exists.
// Following oneself is rejected before anything is read.
func (fg *followGorm) Toggle(ctx context.Context, followerID, followingID int) (*domain.Toggled, error) {
	return fg.edges.toggle(ctx, followerID, followingID)
}

// Followers lists the users following userID, most recent first.
func (fg *followGorm) Followers(ctx context.Context, userID int, req domain.PageRequest, viewer *domain.User) (*domain.Page[domain.FollowView], error) {
	return fg.side(ctx, userID, req, viewer, "follows.follower_id", "follows.following_id")
}

// Following lists the users userID follows, most recent first.
func (fg *followGorm) Following(ctx context.Context, userID int, req domain.PageRequest, viewer *domain.User) (*domain.Page[domain.FollowView], error) {
	return fg.side(ctx, userID, req, viewer, "follows.following_id", "follows.follower_id")
}

// side lists the users on one side of the edges whose other side is userID.
// listed is the column joined to users, anchor the column matched against userID.
func (fg *followGorm) side(ctx context.Context, userID int, req domain.PageRequest, viewer *domain.User, listed, anchor string) (*domain.Page[domain.FollowView], error) {
	req, err := fg.limits.Normalize(req)
	if err != nil {
		return nil, err
	}
	db := fg.db.WithContext(ctx)
	if err := db.First(&domain.User{}, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "The user does not exist.")
	}

	scope := func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN follows ON "+listed+" = users.id").
			Where(anchor+" = ?", userID)
	}
	var total int64
	if err := db.Model(&domain.User{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, errors.WithMessage(err, "count follows")
	}
	var users []domain.User
	err = db.Scopes(scope).
		Order("follows.created_at desc").
		Order("follows.id desc").
		Offset(req.Offset()).
		Limit(req.PageSize).
		Find(&users).Error
	if err != nil {
		return nil, errors.WithMessage(err, "list follows")
	}

	followed, err := fg.followedBy(db, viewerID(viewer), users)
	if err != nil {
		return nil, err
	}
	views := make([]domain.FollowView, 0, len(users))
	for i := range users {
		views = append(views, domain.FollowView{
			UserSummary: users[i].Summary(),
			Signature:   users[i].Signature,
			IsFollowing: followed[users[i].ID],
		})
	}
	return domain.NewPage(views, total, req), nil
}

// followedBy returns the subset of users the viewer follows.
func (fg *followGorm) followedBy(db *gorm.DB, viewer int, users []domain.User) (map[int]bool, error) {
	set := map[int]bool{}
	if viewer == 0 || len(users) == 0 {
		return set, nil
	}
	ids := make([]int, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	var followed []int
	err := db.Model(&domain.Follow{}).
		Where("follower_id = ? AND following_id IN ?", viewer, ids).
		Pluck("following_id", &followed).Error
	if err != nil {
		return nil, errors.WithMessage(err, "find followed users")
	}
	for _, id := range followed {
		set[id] = true
	}
	return set, nil
}

// isFollowing reports whether follower follows following.
func isFollowing(db *gorm.DB, follower, following int) (bool, error) {
	if follower == 0 || follower == following {
		return false, nil
	}
	var n int64
	err := db.Model(&domain.Follow{}).
		Where("follower_id = ? AND following_id = ?", follower, following).
		Count(&n).Error
	if err != nil {
		return false, errors.WithMessage(err, "find follow")
	}
	return n > 0, nil
}
