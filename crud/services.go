package crud

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"animeHub/domain"
)

// A ServicesConfig is any function that takes in a pointer to a Services
// object and returns an error. It's basically just wrapping the constructor
// method of any given crud service. It exists to be able to easily create
// the crud services using functional options in main.go.
type ServicesConfig func(*Services) error

// Services is a container object holding pointers to all the crud services.
// The crud services all share the database connection provided by Services.
type Services struct {
	db       *gorm.DB
	limits   domain.PageLimits
	now      func() time.Time
	User     *UserService
	Post     *PostService
	Comment  *CommentService
	Like     *LikeService
	Favorite *FavoriteService
	Follow   *FollowService
	Admin    *AdminService
	Site     *SiteService
	Avatar   *AvatarService
}

// NewServices returns a new Services object, containing any crud services
// it's told to create by one of the passed in ServicesConfig functions.
// It shares the passed in database connection with any crud service it creates.
// Options that configure the container itself (WithPaging, WithClock) must come
// before the services that use them.
func NewServices(db *gorm.DB, cfgs ...ServicesConfig) (*Services, error) {
	s := Services{
		db:     db,
		limits: domain.DefaultPageLimits,
		now:    time.Now,
	}
	for _, cfg := range cfgs {
		if err := cfg(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// WithPaging sets the page size limits of every listing.
func WithPaging(limits domain.PageLimits) ServicesConfig {
	return func(s *Services) error {
		if limits.Max <= 0 || limits.Default <= 0 || limits.Default > limits.Max {
			return errors.New("crud: page size default must be between 1 and the maximum")
		}
		s.limits = limits
		return nil
	}
}

// WithClock replaces the clock the "today" counters are computed from.
func WithClock(now func() time.Time) ServicesConfig {
	return func(s *Services) error {
		s.now = now
		return nil
	}
}

// WithUser wraps the constructor of UserService, NewUserService.
func WithUser(creds domain.Credentials) ServicesConfig {
	return func(s *Services) error {
		if creds == nil {
			return errors.New("crud: user service requires credentials")
		}
		s.User = NewUserService(s.db, creds)
		return nil
	}
}

// WithPost wraps the constructor of PostService, NewPostService.
func WithPost() ServicesConfig {
	return func(s *Services) error {
		s.Post = NewPostService(s.db, s.limits)
		return nil
	}
}

// WithComment wraps the constructor of CommentService, NewCommentService.
func WithComment() ServicesConfig {
	return func(s *Services) error {
		s.Comment = NewCommentService(s.db, s.limits)
		return nil
	}
}

// WithLike wraps the constructor of LikeService, NewLikeService.
func WithLike() ServicesConfig {
	return func(s *Services) error {
		s.Like = NewLikeService(s.db)
		return nil
	}
}

// WithFavorite wraps the constructor of FavoriteService, NewFavoriteService.
func WithFavorite() ServicesConfig {
	return func(s *Services) error {
		s.Favorite = NewFavoriteService(s.db)
		return nil
	}
}

// WithFollow wraps the constructor of FollowService, NewFollowService.
func WithFollow() ServicesConfig {
	return func(s *Services) error {
		s.Follow = NewFollowService(s.db, s.limits)
		return nil
	}
}

// WithAdmin wraps the constructor of AdminService, NewAdminService.
// It needs the user service, so it must come after WithUser.
func WithAdmin() ServicesConfig {
	return func(s *Services) error {
		if s.User == nil {
			return errors.New("crud: admin service requires the user service")
		}
		s.Admin = NewAdminService(s.db, s.User, s.limits, s.now)
		return nil
	}
}

// WithSite wraps the constructor of SiteService, NewSiteService.
func WithSite() ServicesConfig {
	return func(s *Services) error {
		s.Site = NewSiteService(s.db, s.now)
		return nil
	}
}

// WithAvatar wraps the constructor of AvatarService, NewAvatarService.
// It needs the user service, so it must come after WithUser.
func WithAvatar(store domain.AvatarStore, maxBytes int64) ServicesConfig {
	return func(s *Services) error {
		if s.User == nil {
			return errors.New("crud: avatar service requires the user service")
		}
		s.Avatar = NewAvatarService(store, s.User, maxBytes)
		return nil
	}
}
