package crud

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"animeHub/domain"
	"animeHub/errs"
)

// AdminService holds the moderation operations: dashboard counters, batch deletes
// and the user cascade with its dry run.
// It implements the domain.AdminService interface.
type AdminService struct {
	db     *gorm.DB
	users  *UserService
	limits domain.PageLimits
	now    func() time.Time
}

// NewAdminService returns an instance of AdminService.
func NewAdminService(db *gorm.DB, users *UserService, limits domain.PageLimits, now func() time.Time) *AdminService {
	return &AdminService{
		db:     db,
		users:  users,
		limits: limits,
		now:    now,
	}
}

var _ domain.AdminService = &AdminService{}

// Stats returns the dashboard counters. "Today" starts at midnight UTC+8.
func (as *AdminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	db := as.db.WithContext(ctx)
	today := domain.StartOfDay(as.now()).UTC()
	var s domain.AdminStats
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&s.TotalUsers, db.Model(&domain.User{})},
		{&s.TotalPosts, db.Model(&domain.Post{})},
		{&s.TotalComments, db.Model(&domain.Comment{})},
		{&s.TodayPosts, db.Model(&domain.Post{}).Where("created_at >= ?", today)},
		{&s.TodayComments, db.Model(&domain.Comment{}).Where("created_at >= ?", today)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, errors.WithMessage(err, "count stats")
		}
	}
	err := db.Raw(`SELECT COUNT(*) FROM (
		SELECT author_id FROM posts WHERE created_at >= ?
		UNION
		SELECT author_id FROM comments WHERE created_at >= ?
	) AS active`, today, today).Scan(&s.ActiveUsers).Error
	if err != nil {
		return nil, errors.WithMessage(err, "count active users")
	}
	return &s, nil
}

// Users lists all users by id, including inactive ones.
func (as *AdminService) Users(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.UserListing], error) {
	req, err := as.limits.Normalize(req)
	if err != nil {
		return nil, err
	}
	db := as.db.WithContext(ctx)
	var total int64
	if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, errors.WithMessage(err, "count users")
	}
	var users []domain.User
	err = db.Order("id asc").Offset(req.Offset()).Limit(req.PageSize).Find(&users).Error
	if err != nil {
		return nil, errors.WithMessage(err, "list users")
	}
	rows := make([]domain.UserListing, 0, len(users))
	for i := range users {
		rows = append(rows, domain.UserListing{
			Account:   users[i].Account(),
			IsActive:  users[i].IsActive,
			UpdatedAt: users[i].UpdatedAt,
		})
	}
	return domain.NewPage(rows, total, req), nil
}

// DeletePosts removes several posts in one transaction. Ids of missing posts are
// skipped. It returns the number of posts deleted.
func (as *AdminService) DeletePosts(ctx context.Context, ids []int, requester *domain.User) (int, error) {
	return as.batch(ctx, "posts", ids, requester, lockPostID, (*cascade).posts)
}

// DeleteComments removes several comments in one transaction. Ids of missing
// comments are skipped. It returns the number of comments deleted.
func (as *AdminService) DeleteComments(ctx context.Context, ids []int, requester *domain.User) (int, error) {
	return as.batch(ctx, "comments", ids, requester, lockCommentID, (*cascade).comments)
}

// batch locks every existing row of ids and runs one cascade over all of them.
func (as *AdminService) batch(ctx context.Context, entity string, ids []int, requester *domain.User,
	lock func(tx *gorm.DB, id int) error, run func(c *cascade, ids []int) error) (int, error) {
	if requester == nil || !requester.IsAdmin {
		return 0, errs.AdminOnly
	}
	if len(ids) == 0 {
		return 0, errs.Errorf(errs.EINVALID, "No %s selected.", entity)
	}
	var report *domain.CascadeReport
	var found []int
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen := map[int]bool{}
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			err := lock(tx, id)
			if errs.ErrorCode(err) == errs.ENOTFOUND {
				continue
			}
			if err != nil {
				return err
			}
			found = append(found, id)
		}
		c := newCascade(tx, entity, 0)
		if err := run(c, found); err != nil {
			return err
		}
		report = c.report
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(found) > 0 {
		logReport(report)
	}
	return len(found), nil
}

func lockPostID(tx *gorm.DB, id int) error {
	_, err := lockPost(tx, id)
	return err
}

func lockCommentID(tx *gorm.DB, id int) error {
	_, err := lockComment(tx, id)
	return err
}

// InspectUser is the dry run of DeleteUser: it counts everything the user owns
// or is referenced by, without changing anything.
func (as *AdminService) InspectUser(ctx context.Context, id int) (*domain.UserInventory, error) {
	db := as.db.WithContext(ctx)
	user, err := as.users.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return inventory(db, user)
}

// DeleteUser removes a user and everything depending on it. The requester must be
// an admin or the user themself. When the user has written posts or comments the
// deletion is refused unless force is set; the refusal comes with the inventory.
func (as *AdminService) DeleteUser(ctx context.Context, id int, requester *domain.User, force bool) (*domain.UserDeletion, error) {
	return deleteUser(ctx, as.db, id, requester, force)
}

// deleteUser runs the user cascade in one transaction with the user row locked.
func deleteUser(ctx context.Context, db *gorm.DB, id int, requester *domain.User, force bool) (*domain.UserDeletion, error) {
	if requester == nil {
		return nil, errs.AuthRequired
	}
	var deletion domain.UserDeletion
	refused := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := lockUser(tx, id)
		if err != nil {
			return err
		}
		if !mayModify(requester, user.ID) {
			return errs.AdminOnly
		}
		inv, err := inventory(tx, user)
		if err != nil {
			return err
		}
		deletion.Inventory = *inv
		if inv.HasContent() && !force {
			refused = true
			return errs.Errorf(errs.EINVALID,
				"User %s owns %d posts and %d comments, deleting them requires force.",
				user.Username, inv.Posts, inv.Comments)
		}
		c := newCascade(tx, "user", id)
		if err := c.user(id); err != nil {
			return err
		}
		deletion.Report = c.report
		deletion.Deleted = true
		return nil
	})
	if err != nil {
		if refused {
			return &domain.UserDeletion{Inventory: deletion.Inventory}, err
		}
		return nil, err
	}
	logReport(deletion.Report)
	return &deletion, nil
}

// inventory counts the rows a user cascade would remove, grouped by kind.
func inventory(db *gorm.DB, user *domain.User) (*domain.UserInventory, error) {
	inv := &domain.UserInventory{UserID: user.ID, Username: user.Username}
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&inv.Posts, db.Model(&domain.Post{}).Where("author_id = ?", user.ID)},
		{&inv.Comments, db.Model(&domain.Comment{}).Where("author_id = ?", user.ID)},
		{&inv.PostLikes, db.Model(&domain.PostLike{}).Where("user_id = ?", user.ID)},
		{&inv.CommentLikes, db.Model(&domain.CommentLike{}).Where("user_id = ?", user.ID)},
		{&inv.Favorites, db.Model(&domain.PostFavorite{}).Where("user_id = ?", user.ID)},
		{&inv.Followers, db.Model(&domain.Follow{}).Where("following_id = ?", user.ID)},
		{&inv.Following, db.Model(&domain.Follow{}).Where("follower_id = ?", user.ID)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, errors.WithMessage(err, "count user inventory")
		}
	}
	return inv, nil
}

// SetAdmin grants or revokes admin rights.
func (as *AdminService) SetAdmin(ctx context.Context, id int, admin bool) (*domain.User, error) {
	user, err := as.users.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = admin
	if err := as.users.update(ctx, user, "is_admin"); err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword replaces a user's password without knowing the old one.
func (as *AdminService) ResetPassword(ctx context.Context, id int, password string) error {
	user, err := as.users.ByID(ctx, id)
	if err != nil {
		return err
	}
	user.Password = password
	err = runUserValFns(ctx, user,
		as.users.passwordRequired,
		as.users.passwordLength,
		as.users.passwordHash)
	if err != nil {
		return err
	}
	return as.users.update(ctx, user, "password_hash")
}

// CreateAdmin registers a new user with admin rights.
func (as *AdminService) CreateAdmin(ctx context.Context, user *domain.User) error {
	user.IsAdmin = true
	return as.users.Register(ctx, user)
}
