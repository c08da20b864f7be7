package domain

import (
	"context"
	"time"
)

// PostFavorite is the join entity between a User and a bookmarked Post.
// The (user, post) pair is unique at storage level.
type PostFavorite struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId" gorm:"notNull;uniqueIndex:idx_post_favorite_pair"`
	PostID    int       `json:"postId" gorm:"notNull;uniqueIndex:idx_post_favorite_pair;index"`
	Post      *Post     `json:"-" gorm:"foreignKey:PostID"`
	CreatedAt time.Time `json:"createdAt"`
}

// FavoriteService is a set of methods to bookmark posts.
type FavoriteService interface {
	Toggle(ctx context.Context, userID, postID int) (*Toggled, error)
}
