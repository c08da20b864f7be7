package domain

import (
	"context"
	"time"
)

// SiteStats are the public counters of the forum.
type SiteStats struct {
	TotalPosts int64 `json:"totalPosts"`
	TodayPosts int64 `json:"todayPosts"`
	TotalUsers int64 `json:"totalUsers"`
}

// AdminStats are the counters shown on the moderation dashboard.
// ActiveUsers counts distinct users who posted or commented today.
type AdminStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalPosts    int64 `json:"totalPosts"`
	TotalComments int64 `json:"totalComments"`
	TodayPosts    int64 `json:"todayPosts"`
	TodayComments int64 `json:"todayComments"`
	ActiveUsers   int64 `json:"activeUsers"`
}

// Fortune is the daily fortune of a visitor.
type Fortune struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Type    string `json:"type"`
	Icon    string `json:"icon"`
}

// Developer is an entry of the static about page.
type Developer struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Avatar      string `json:"avatar"`
	Github      string `json:"github,omitempty"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

// UserListing is a row of the administrative user list.
type UserListing struct {
	Account
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AdminService is a set of moderation methods. Every method expects the
// caller to have checked the admin flag, except DeleteUser which checks it itself.
type AdminService interface {
	Stats(ctx context.Context) (*AdminStats, error)
	Users(ctx context.Context, req PageRequest) (*Page[UserListing], error)
	DeletePosts(ctx context.Context, ids []int, requester *User) (int, error)
	DeleteComments(ctx context.Context, ids []int, requester *User) (int, error)
	InspectUser(ctx context.Context, id int) (*UserInventory, error)
	DeleteUser(ctx context.Context, id int, requester *User, force bool) (*UserDeletion, error)
	SetAdmin(ctx context.Context, id int, admin bool) (*User, error)
	ResetPassword(ctx context.Context, id int, password string) error
	CreateAdmin(ctx context.Context, user *User) error
}

// SiteService serves the public site information.
type SiteService interface {
	Stats(ctx context.Context) (*SiteStats, error)
	Fortune(viewer *User) *Fortune
	Developers() []Developer
}
