package domain

import (
	"context"
	"time"
)

// PostLike is the join entity between a User and a liked Post.
// The (user, post) pair is unique at storage level.
type PostLike struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId" gorm:"notNull;uniqueIndex:idx_post_like_pair"`
	PostID    int       `json:"postId" gorm:"notNull;uniqueIndex:idx_post_like_pair;index"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentLike is the join entity between a User and a liked Comment.
// The (user, comment) pair is unique at storage level.
type CommentLike struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId" gorm:"notNull;uniqueIndex:idx_comment_like_pair"`
	CommentID int       `json:"commentId" gorm:"notNull;uniqueIndex:idx_comment_like_pair;index"`
	CreatedAt time.Time `json:"createdAt"`
}

// Toggled is the result of flipping a relation. Count is the number of
// relation rows the target has after the flip.
type Toggled struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// LikeService is a set of methods to like and unlike posts and comments.
type LikeService interface {
	TogglePost(ctx context.Context, userID, postID int) (*Toggled, error)
	ToggleComment(ctx context.Context, userID, commentID int) (*Toggled, error)
}
