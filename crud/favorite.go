package crud

import (
	"context"

	"gorm.io/gorm"

	"animeHub/domain"
)

// FavoriteService manages PostFavorites.
// It implements the domain.FavoriteService interface.
type FavoriteService struct {
	favorites *toggler[domain.PostFavorite]
}

// NewFavoriteService returns an instance of FavoriteService.
func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{
		favorites: &toggler[domain.PostFavorite]{
			db:           db,
			target:       &domain.Post{},
			targetName:   "post",
			actorColumn:  "user_id",
			targetColumn: "post_id",
			newRow: func(user, post int) *domain.PostFavorite {
				return &domain.PostFavorite{UserID: user, PostID: post}
			},
		},
	}
}

var _ domain.FavoriteService = &FavoriteService{}

// Toggle bookmarks a post, or removes the bookmark if it exists.
func (fs *FavoriteService) Toggle(ctx context.Context, userID, postID int) (*domain.Toggled, error) {
	return fs.favorites.toggle(ctx, userID, postID)
}
