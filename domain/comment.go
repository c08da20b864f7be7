package domain

import (
	"context"
	"time"
)

// Comment is a reply to a Post. It's owned by the Post and owns its CommentLikes.
type Comment struct {
	ID        int           `json:"id"`
	Content   string        `json:"content" gorm:"size:500;notNull"`
	AuthorID  int           `json:"authorId" gorm:"notNull;index"`
	Author    *User         `json:"-" gorm:"foreignKey:AuthorID"`
	PostID    int           `json:"postId" gorm:"notNull;index"`
	Likes     []CommentLike `json:"-" gorm:"foreignKey:CommentID"`
	CreatedAt time.Time     `json:"createdAt" gorm:"index"`
}

// CommentView is a comment as it is shown to a specific viewer.
type CommentView struct {
	ID        int         `json:"id"`
	Content   string      `json:"content"`
	PostID    int         `json:"postId"`
	Author    UserSummary `json:"author"`
	LikeCount int         `json:"likeCount"`
	IsLiked   bool        `json:"isLiked"`
	CreatedAt time.Time   `json:"createdAt"`
}

// CommentQuery selects a page of comments. PostID 0 lists comments across all posts.
type CommentQuery struct {
	PageRequest
	Order   Order
	Keyword string
	PostID  int
}

// CommentService is a set of methods to manipulate and work with the Comment model.
type CommentService interface {
	Create(ctx context.Context, author *User, postID int, content string) (*CommentView, error)
	List(ctx context.Context, q CommentQuery, viewer *User) (*Page[CommentView], error)
	Delete(ctx context.Context, id int, requester *User) (*CascadeReport, error)
}
