package crud

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"animeHub/domain"
)

// Names of the steps of a cascade, as they appear in a domain.CascadeReport.
const (
	StepPostLikes           = "post_likes"
	StepPostFavorites       = "post_favorites"
	StepCommentLikes        = "comment_likes"
	StepComments            = "comments"
	StepPosts               = "posts"
	StepCommentLikesByUser  = "comment_likes_by_user"
	StepCommentsByUser      = "comments_by_user"
	StepPostLikesByUser     = "post_likes_by_user"
	StepPostFavoritesByUser = "post_favorites_by_user"
	StepFollowsAsFollower   = "follows_as_follower"
	StepFollowsAsFollowing  = "follows_as_following"
	StepUser                = "user"
)

// cascade runs the delete statements of one deletion in a fixed order inside one
// transaction, recording the rows each statement removed. It does no checks of its
// own: existence and permissions are verified on the locked owner row before the
// first step runs. Any failing step aborts the transaction it is running in.
type cascade struct {
	tx     *gorm.DB
	report *domain.CascadeReport
}

// newCascade starts a report for the entity with the given id.
func newCascade(tx *gorm.DB, entity string, id int) *cascade {
	return &cascade{
		tx:     tx,
		report: &domain.CascadeReport{Entity: entity, ID: id, Steps: []domain.CascadeStep{}},
	}
}

// step deletes the rows of model matching the condition.
func (c *cascade) step(name string, model interface{}, query string, args ...interface{}) error {
	res := c.tx.Where(query, args...).Delete(model)
	if res.Error != nil {
		return errors.WithMessagef(res.Error, "delete %s %d: step %s", c.report.Entity, c.report.ID, name)
	}
	c.report.Steps = append(c.report.Steps, domain.CascadeStep{Name: name, Rows: res.RowsAffected})
	return nil
}

// pluck collects the ids of model matching the condition.
func (c *cascade) pluck(model interface{}, query string, args ...interface{}) ([]int, error) {
	var ids []int
	err := c.tx.Model(model).Where(query, args...).Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.WithMessagef(err, "delete %s %d: collect ids", c.report.Entity, c.report.ID)
	}
	return ids, nil
}

// posts removes the given posts: their likes, their favorites, the likes of
// their comments, their comments, and finally the posts.
func (c *cascade) posts(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.step(StepPostLikes, &domain.PostLike{}, "post_id IN ?", ids); err != nil {
		return err
	}
	if err := c.step(StepPostFavorites, &domain.PostFavorite{}, "post_id IN ?", ids); err != nil {
		return err
	}
	commentIDs, err := c.pluck(&domain.Comment{}, "post_id IN ?", ids)
	if err != nil {
		return err
	}
	if len(commentIDs) > 0 {
		if err := c.step(StepCommentLikes, &domain.CommentLike{}, "comment_id IN ?", commentIDs); err != nil {
			return err
		}
		if err := c.step(StepComments, &domain.Comment{}, "post_id IN ?", ids); err != nil {
			return err
		}
	}
	return c.step(StepPosts, &domain.Post{}, "id IN ?", ids)
}

// comments removes the given comments and their likes.
func (c *cascade) comments(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.step(StepCommentLikes, &domain.CommentLike{}, "comment_id IN ?", ids); err != nil {
		return err
	}
	return c.step(StepComments, &domain.Comment{}, "id IN ?", ids)
}

// user removes a user and every row referencing the user or the user's content.
// Comment likes die before comments, comments before posts, and both directions
// of the follow graph are cleared before the user row.
func (c *cascade) user(id int) error {
	if err := c.step(StepCommentLikesByUser, &domain.CommentLike{}, "user_id = ?", id); err != nil {
		return err
	}
	ownComments, err := c.pluck(&domain.Comment{}, "author_id = ?", id)
	if err != nil {
		return err
	}
	if len(ownComments) > 0 {
		if err := c.step(StepCommentLikes, &domain.CommentLike{}, "comment_id IN ?", ownComments); err != nil {
			return err
		}
	}
	if err := c.step(StepCommentsByUser, &domain.Comment{}, "author_id = ?", id); err != nil {
		return err
	}
	if err := c.step(StepPostLikesByUser, &domain.PostLike{}, "user_id = ?", id); err != nil {
		return err
	}
	if err := c.step(StepPostFavoritesByUser, &domain.PostFavorite{}, "user_id = ?", id); err != nil {
		return err
	}

	ownPosts, err := c.pluck(&domain.Post{}, "author_id = ?", id)
	if err != nil {
		return err
	}
	if len(ownPosts) > 0 {
		commentIDs, err := c.pluck(&domain.Comment{}, "post_id IN ?", ownPosts)
		if err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			if err := c.step(StepCommentLikes, &domain.CommentLike{}, "comment_id IN ?", commentIDs); err != nil {
				return err
			}
			if err := c.step(StepComments, &domain.Comment{}, "post_id IN ?", ownPosts); err != nil {
				return err
			}
		}
		if err := c.step(StepPostLikes, &domain.PostLike{}, "post_id IN ?", ownPosts); err != nil {
			return err
		}
		if err := c.step(StepPostFavorites, &domain.PostFavorite{}, "post_id IN ?", ownPosts); err != nil {
			return err
		}
		if err := c.step(StepPosts, &domain.Post{}, "id IN ?", ownPosts); err != nil {
			return err
		}
	}

	if err := c.step(StepFollowsAsFollower, &domain.Follow{}, "follower_id = ?", id); err != nil {
		return err
	}
	if err := c.step(StepFollowsAsFollowing, &domain.Follow{}, "following_id = ?", id); err != nil {
		return err
	}
	return c.step(StepUser, &domain.User{}, "id = ?", id)
}

// logReport writes a committed cascade to the log.
func logReport(r *domain.CascadeReport) {
	fields := logrus.Fields{"entity": r.Entity, "id": r.ID, "rows": r.Total()}
	for _, s := range r.Steps {
		fields[s.Name] = r.Rows(s.Name)
	}
	logrus.WithFields(fields).Info("[crud] cascade deleted")
}
