package domain

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

// Post represents a forum post. A Post owns its Comments, PostLikes and PostFavorites,
// and transitively the CommentLikes of its Comments.
type Post struct {
	ID        int                         `json:"id"`
	Title     string                      `json:"title" gorm:"size:100;notNull"`
	Content   string                      `json:"content" gorm:"type:text;notNull"`
	Images    datatypes.JSONSlice[string] `json:"images"`
	ViewCount int                         `json:"viewCount" gorm:"notNull;default:0"`
	AuthorID  int                         `json:"authorId" gorm:"notNull;index"`
	Author    *User                       `json:"-" gorm:"foreignKey:AuthorID"`
	Likes     []PostLike                  `json:"-" gorm:"foreignKey:PostID"`
	Comments  []Comment                   `json:"-" gorm:"foreignKey:PostID"`
	Favorites []PostFavorite              `json:"-" gorm:"foreignKey:PostID"`
	CreatedAt time.Time                   `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

// PostInput holds the user submitted fields of a post. On update, nil fields stay untouched.
type PostInput struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Images  *[]string `json:"images"`
}

// PostView is a post as it is shown to a specific viewer, with its counts
// computed from the loaded like, comment and favorite sets.
type PostView struct {
	ID           int           `json:"id"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Images       []string      `json:"images"`
	ViewCount    int           `json:"viewCount"`
	Author       UserSummary   `json:"author"`
	LikeCount    int           `json:"likeCount"`
	CommentCount int           `json:"commentCount"`
	IsLiked      bool          `json:"isLiked"`
	IsFavorited  bool          `json:"isFavorited"`
	Comments     []CommentView `json:"comments,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// PostQuery selects and orders a page of posts. Zero values mean "no filter".
// Comments > 0 attaches up to that many of the newest comments to every post.
type PostQuery struct {
	PageRequest
	Order    Order
	Keyword  string
	AuthorID int
	Comments int
}

// PostService is a set of methods to manipulate and work with the Post model.
type PostService interface {
	Create(ctx context.Context, author *User, in PostInput) (*PostView, error)
	Update(ctx context.Context, id int, requester *User, in PostInput) (*PostView, error)
	Detail(ctx context.Context, id int, viewer *User) (*PostView, error)
	List(ctx context.Context, q PostQuery, viewer *User) (*Page[PostView], error)
	Favorites(ctx context.Context, userID int, req PageRequest, viewer *User) (*Page[PostView], error)
	Liked(ctx context.Context, userID int, req PageRequest, viewer *User) (*Page[PostView], error)
	Delete(ctx context.Context, id int, requester *User) (*CascadeReport, error)
}
