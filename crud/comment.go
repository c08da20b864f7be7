package crud

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"animeHub/domain"
	"animeHub/errs"
)

// CommentMaxLength is the maximum length of a comment in characters.
const CommentMaxLength = 500

// CommentService manages Comments.
// It implements the domain.CommentService interface.
type CommentService struct {
	commentValidator
}

// commentValidator runs validations on incoming Comment data.
// On success, it passes the data on to commentGorm.
type commentValidator struct {
	commentGorm
}

// commentGorm runs CRUD operations on the database using incoming Comment data.
type commentGorm struct {
	db     *gorm.DB
	limits domain.PageLimits
}

// NewCommentService returns an instance of CommentService.
func NewCommentService(db *gorm.DB, limits domain.PageLimits) *CommentService {
	return &CommentService{
		commentValidator{
			commentGorm{
				db:     db,
				limits: limits,
			},
		},
	}
}

var _ domain.CommentService = &CommentService{}

// Create runs validations needed for creating new Comment database records.
func (cv *commentValidator) Create(ctx context.Context, author *domain.User, postID int, content string) (*domain.CommentView, error) {
	if author == nil {
		return nil, errs.AuthRequired
	}
	comment := &domain.Comment{AuthorID: author.ID, PostID: postID, Content: content}
	err := runCommentValFns(comment,
		cv.contentRequired,
		cv.contentMaxLength)
	if err != nil {
		return nil, err
	}
	if err := cv.commentGorm.create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = author
	view := commentView(comment, author)
	return &view, nil
}

// runCommentValFns runs any number of functions of type commentValFn on the passed in Comment object.
func runCommentValFns(comment *domain.Comment, fns ...commentValFn) error {
	for _, fn := range fns {
		if err := fn(comment); err != nil {
			return err
		}
	}
	return nil
}

// A commentValFn is any function that takes in a pointer to a domain.Comment object and returns an error.
type commentValFn func(comment *domain.Comment) error

// contentRequired makes sure that the comment is not blank.
func (cv *commentValidator) contentRequired(comment *domain.Comment) error {
	if strings.TrimSpace(comment.Content) == "" {
		return errs.Errorf(errs.EINVALID, "Comment content must not be empty.")
	}
	return nil
}

// contentMaxLength makes sure that the comment does not exceed CommentMaxLength.
func (cv *commentValidator) contentMaxLength(comment *domain.Comment) error {
	if utf8.RuneCountInString(comment.Content) > CommentMaxLength {
		return errs.Errorf(errs.EINVALID, "Comment max length is %d characters.", CommentMaxLength)
	}
	return nil
}

// create stores the comment. The post is locked while the comment is inserted,
// so a comment can't be added to a post whose deletion is in flight.
func (cg *commentGorm) create(ctx context.Context, comment *domain.Comment) error {
	return cg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, comment.PostID); err != nil {
			return err
		}
		return errors.WithMessage(tx.Create(comment).Error, "create comment")
	})
}

// List retrieves a page of comments, either of one post or across the forum.
// Only the latest and oldest orders apply to comments.
func (cg *commentGorm) List(ctx context.Context, q domain.CommentQuery, viewer *domain.User) (*domain.Page[domain.CommentView], error) {
	req, err := cg.limits.Normalize(q.PageRequest)
	if err != nil {
		return nil, err
	}
	db := cg.db.WithContext(ctx)
	if q.PostID > 0 {
		if err := db.First(&domain.Post{}, "id = ?", q.PostID).Error; err != nil {
			return nil, notFound(err, "The post does not exist.")
		}
	}

	filter := func(db *gorm.DB) *gorm.DB {
		if q.PostID > 0 {
			db = db.Where("comments.post_id = ?", q.PostID)
		}
		if kw := strings.TrimSpace(q.Keyword); kw != "" {
			db = db.Where("LOWER(comments.content) LIKE ? ESCAPE '\\'", likePattern(kw))
		}
		return db
	}
	var order string
	switch q.Order {
	case domain.OrderOldest:
		order = "comments.created_at asc, comments.id asc"
	case domain.OrderLatest, "":
		order = "comments.created_at desc, comments.id desc"
	default:
		return nil, errs.Errorf(errs.EINVALID, "Comments can only be sorted by latest or oldest.")
	}

	var total int64
	if err := db.Model(&domain.Comment{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, errors.WithMessage(err, "count comments")
	}
	var comments []domain.Comment
	err = db.
		Scopes(filter).
		Preload("Author").
		Preload("Likes").
		Order(order).
		Offset(req.Offset()).
		Limit(req.PageSize).
		Find(&comments).Error
	if err != nil {
		return nil, errors.WithMessage(err, "list comments")
	}
	views := make([]domain.CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, commentView(&comments[i], viewer))
	}
	return domain.NewPage(views, total, req), nil
}

// Delete removes a comment and its likes. Only the author or an admin may delete it.
func (cg *commentGorm) Delete(ctx context.Context, id int, requester *domain.User) (*domain.CascadeReport, error) {
	if requester == nil {
		return nil, errs.AuthRequired
	}
	var report *domain.CascadeReport
	err := cg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comment, err := lockComment(tx, id)
		if err != nil {
			return err
		}
		if !mayModify(requester, comment.AuthorID) {
			return errs.Errorf(errs.EFORBIDDEN, "You are not allowed to delete this comment.")
		}
		c := newCascade(tx, "comment", id)
		if err := c.comments([]int{id}); err != nil {
			return err
		}
		report = c.report
		return nil
	})
	if err != nil {
		return nil, err
	}
	logReport(report)
	return report, nil
}

// commentView builds the view of a comment for a viewer from its preloaded likes.
func commentView(c *domain.Comment, viewer *domain.User) domain.CommentView {
	v := domain.CommentView{
		ID:        c.ID,
		Content:   c.Content,
		PostID:    c.PostID,
		LikeCount: len(c.Likes),
		CreatedAt: c.CreatedAt,
	}
	if c.Author != nil {
		v.Author = c.Author.Summary()
	}
	if id := viewerID(viewer); id != 0 {
		for _, l := range c.Likes {
			if l.UserID == id {
				v.IsLiked = true
				break
			}
		}
	}
	return v
}
