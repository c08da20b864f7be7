package crud

import (
	"context"

	"gorm.io/gorm"

	"animeHub/domain"
)

// LikeService manages PostLikes and CommentLikes.
// It implements the domain.LikeService interface.
type LikeService struct {
	likeValidator
}

// likeValidator runs validations on incoming like requests.
// On success, it passes them on to likeGorm.
type likeValidator struct {
	likeGorm
}

// likeGorm flips like rows in the database. It assumes that the request has been validated.
type likeGorm struct {
	posts    *toggler[domain.PostLike]
	comments *toggler[domain.CommentLike]
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{
		likeValidator{
			likeGorm{
				posts: &toggler[domain.PostLike]{
					db:           db,
					target:       &domain.Post{},
					targetName:   "post",
					actorColumn:  "user_id",
					targetColumn: "post_id",
					newRow: func(user, post int) *domain.PostLike {
						return &domain.PostLike{UserID: user, PostID: post}
					},
				},
				comments: &toggler[domain.CommentLike]{
					db:           db,
					target:       &domain.Comment{},
					targetName:   "comment",
					actorColumn:  "user_id",
					targetColumn: "comment_id",
					newRow: func(user, comment int) *domain.CommentLike {
						return &domain.CommentLike{UserID: user, CommentID: comment}
					},
				},
			},
		},
	}
}

// Ensure the LikeService struct properly implements the domain.LikeService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.LikeService = &LikeService{}

// TogglePost likes a post, or unlikes it if the user already likes it.
func (lg *likeGorm) TogglePost(ctx context.Context, userID, postID int) (*domain.Toggled, error) {
	return lg.posts.toggle(ctx, userID, postID)
}

// ToggleComment likes a comment, or unlikes it if the user already likes it.
func (lg *likeGorm) ToggleComment(ctx context.Context, userID, commentID int) (*domain.Toggled, error) {
	return lg.comments.toggle(ctx, userID, commentID)
}
