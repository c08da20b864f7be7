package domain

import (
	"context"
	"time"
)

// Follow is a directed edge between two users. The same table is read from both
// sides: by follower_id for "following", by following_id for "followers".
// A user cannot follow themselves.
type Follow struct {
	ID          int       `json:"id"`
	FollowerID  int       `json:"followerId" gorm:"notNull;uniqueIndex:idx_follow_pair"`
	Follower    *User     `json:"-" gorm:"foreignKey:FollowerID"`
	FollowingID int       `json:"followingId" gorm:"notNull;uniqueIndex:idx_follow_pair;index"`
	Following   *User     `json:"-" gorm:"foreignKey:FollowingID"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FollowView is one entry of a followers or following list.
type FollowView struct {
	UserSummary
	Signature   string `json:"signature"`
	IsFollowing bool   `json:"isFollowing"`
}

// FollowService is a set of methods to follow users and list both sides of the graph.
type FollowService interface {
	Toggle(ctx context.Context, followerID, followingID int) (*Toggled, error)
	Followers(ctx context.Context, userID int, req PageRequest, viewer *User) (*Page[FollowView], error)
	Following(ctx context.Context, userID int, req PageRequest, viewer *User) (*Page[FollowView], error)
}
