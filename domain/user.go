package domain

import (
	"context"
	"time"
)

// User represents a registered member of the forum. A User owns Posts, Comments,
// PostLikes, CommentLikes, PostFavorites and two disjoint sets of Follows: the ones
// where the user is the follower, and the ones where the user is being followed.
// Removing a User must remove all of those first, see crud/cascade.go.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username" gorm:"size:20;notNull;uniqueIndex"`
	Email        string `json:"email" gorm:"size:255;notNull;uniqueIndex"`
	Password     string `json:"-" gorm:"-"`
	PasswordHash string `json:"-" gorm:"size:255;notNull"`
	Avatar       string `json:"-" gorm:"size:500"`
	Signature    string `json:"signature" gorm:"size:200"`
	IsAdmin      bool   `json:"isAdmin" gorm:"notNull;default:false"`
	IsActive     bool   `json:"-" gorm:"notNull;default:true"`

	EmailNotifications   bool `json:"-" gorm:"notNull;default:true"`
	MessageNotifications bool `json:"-" gorm:"notNull;default:true"`
	PublicProfile        bool `json:"-" gorm:"notNull;default:true"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// AvatarURL returns the uploaded avatar of the user, or a generated one.
func (u *User) AvatarURL() string {
	if u.Avatar != "" {
		return u.Avatar
	}
	return DefaultAvatar(u.Username)
}

// DefaultAvatar returns the generated avatar url for a username.
func DefaultAvatar(username string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + username
}

// UserSummary is the public shape of a user embedded in other responses.
type UserSummary struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary returns the public shape of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Avatar:    u.AvatarURL(),
		CreatedAt: u.CreatedAt,
	}
}

// Account is the shape of the authenticated user's own record.
type Account struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	Signature string    `json:"signature"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// Account returns the private shape of the user, including the email address.
func (u *User) Account() Account {
	return Account{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.AvatarURL(),
		Signature: u.Signature,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

// UserProfile is a user's public profile with its read-time aggregates.
type UserProfile struct {
	UserSummary
	Signature      string `json:"signature"`
	PostsCount     int64  `json:"postsCount"`
	LikesCount     int64  `json:"likesCount"`
	FollowersCount int64  `json:"followersCount"`
	FollowingCount int64  `json:"followingCount"`
	IsFollowing    bool   `json:"isFollowing"`
}

// UserUpdate holds the profile fields a user may change. Nil fields stay untouched.
type UserUpdate struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Signature *string `json:"signature"`
}

// UserSettings holds the notification and privacy preferences of a user.
type UserSettings struct {
	EmailNotifications   bool `json:"emailNotifications"`
	MessageNotifications bool `json:"messageNotifications"`
	PublicProfile        bool `json:"publicProfile"`
}

// Settings returns the preferences of the user.
func (u *User) Settings() UserSettings {
	return UserSettings{
		EmailNotifications:   u.EmailNotifications,
		MessageNotifications: u.MessageNotifications,
		PublicProfile:        u.PublicProfile,
	}
}

// UserInventory counts everything a user owns or is referenced by. It's the
// dry-run report shown before a user is deleted.
type UserInventory struct {
	UserID       int    `json:"userId"`
	Username     string `json:"username"`
	Posts        int64  `json:"posts"`
	Comments     int64  `json:"comments"`
	PostLikes    int64  `json:"postLikes"`
	CommentLikes int64  `json:"commentLikes"`
	Favorites    int64  `json:"favorites"`
	Followers    int64  `json:"followers"`
	Following    int64  `json:"following"`
}

// HasContent reports whether deleting the user would also delete authored content.
func (inv *UserInventory) HasContent() bool {
	return inv.Posts > 0 || inv.Comments > 0
}

// UserDeletion is the outcome of a user deletion request. Deleted is false when
// the request was refused, in which case Report is nil.
type UserDeletion struct {
	Inventory UserInventory  `json:"inventory"`
	Deleted   bool           `json:"deleted"`
	Report    *CascadeReport `json:"report,omitempty"`
}

// Credentials is the external credential service: password digests and bearer tokens.
type Credentials interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
	IssueToken(userID int) (string, error)
	ParseToken(token string) (int, error)
}

// UserService is a set of methods to manipulate and work with the User model.
type UserService interface {
	Register(ctx context.Context, user *User) error
	Authenticate(ctx context.Context, username, password string) (*User, error)
	IssueToken(user *User) (string, error)
	ByToken(ctx context.Context, token string) (*User, error)
	ByID(ctx context.Context, id int) (*User, error)
	Profile(ctx context.Context, id int, viewer *User) (*UserProfile, error)
	UpdateProfile(ctx context.Context, user *User, upd UserUpdate) error
	ChangePassword(ctx context.Context, user *User, current, next string) error
	UpdateSettings(ctx context.Context, user *User, settings UserSettings) error
	SetAvatar(ctx context.Context, user *User, url string) error
	DeleteAccount(ctx context.Context, user *User, password string) (*CascadeReport, error)
}
