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

// Post field limits.
const (
	PostTitleMaxLength   = 100
	PostContentMaxLength = 5000
	PostImagesMax        = 9
)

// PostService manages Posts.
// It implements the domain.PostService interface.
type PostService struct {
	postValidator
}

// postValidator runs validations on incoming Post data.
// On success, it passes the data on to postGorm.
// Otherwise, it returns the error of the validation that has failed.
type postValidator struct {
	postGorm
}

// postGorm runs CRUD operations on the database using incoming Post data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type postGorm struct {
	db     *gorm.DB
	limits domain.PageLimits
}

// NewPostService returns an instance of PostService.
func NewPostService(db *gorm.DB, limits domain.PageLimits) *PostService {
	return &PostService{
		postValidator{
			postGorm{
				db:     db,
				limits: limits,
			},
		},
	}
}

// Ensure the PostService struct properly implements the domain.PostService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.PostService = &PostService{}

// Create runs validations needed for creating new Post database records.
func (pv *postValidator) Create(ctx context.Context, author *domain.User, in domain.PostInput) (*domain.PostView, error) {
	if author == nil {
		return nil, errs.AuthRequired
	}
	post := &domain.Post{AuthorID: author.ID}
	applyPostInput(post, in)
	err := runPostValFns(post,
		pv.authorIdValid,
		pv.titleRequired,
		pv.titleMaxLength,
		pv.contentRequired,
		pv.contentMaxLength,
		pv.imagesMaxCount)
	if err != nil {
		return nil, err
	}
	if err := pv.postGorm.create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = author
	view := postView(post, author)
	return &view, nil
}

// Update runs validations needed for updating an existing Post. Only the author may edit a post.
func (pv *postValidator) Update(ctx context.Context, id int, requester *domain.User, in domain.PostInput) (*domain.PostView, error) {
	if requester == nil {
		return nil, errs.AuthRequired
	}
	var post *domain.Post
	err := pv.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if post, err = lockPost(tx, id); err != nil {
			return err
		}
		if post.AuthorID != requester.ID {
			return errs.Errorf(errs.EFORBIDDEN, "You are not allowed to edit this post.")
		}
		applyPostInput(post, in)
		err = runPostValFns(post,
			pv.titleRequired,
			pv.titleMaxLength,
			pv.contentRequired,
			pv.contentMaxLength,
			pv.imagesMaxCount)
		if err != nil {
			return err
		}
		err = tx.Model(post).Select("title", "content", "images").Updates(post).Error
		return errors.WithMessage(err, "update post")
	})
	if err != nil {
		return nil, err
	}
	return pv.postGorm.byID(ctx, post.ID, requester, false)
}

// runPostValFns runs any number of functions of type postValFn on the passed in Post object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runPostValFns(post *domain.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

// A postValFn is any function that takes in a pointer to a domain.Post object and returns an error.
type postValFn func(post *domain.Post) error

// applyPostInput copies the set fields of the input onto the post.
func applyPostInput(post *domain.Post, in domain.PostInput) {
	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Images != nil {
		post.Images = *in.Images
	}
	if post.Images == nil {
		post.Images = []string{}
	}
}

// authorIdValid ensures that the author id is not empty.
func (pv *postValidator) authorIdValid(post *domain.Post) error {
	if post.AuthorID <= 0 {
		return errs.UserIdValid
	}
	return nil
}

// titleRequired makes sure that the title is not blank.
func (pv *postValidator) titleRequired(post *domain.Post) error {
	if post.Title == "" {
		return errs.Errorf(errs.EINVALID, "A title is required.")
	}
	return nil
}

// titleMaxLength makes sure that the title does not exceed the maximum title length.
func (pv *postValidator) titleMaxLength(post *domain.Post) error {
	if utf8.RuneCountInString(post.Title) > PostTitleMaxLength {
		return errs.Errorf(errs.EINVALID, "Title max length is %d characters.", PostTitleMaxLength)
	}
	return nil
}

// contentRequired makes sure that the content is not blank.
func (pv *postValidator) contentRequired(post *domain.Post) error {
	if strings.TrimSpace(post.Content) == "" {
		return errs.Errorf(errs.EINVALID, "Post content must not be empty.")
	}
	return nil
}

// contentMaxLength makes sure that the content does not exceed the maximum content length.
func (pv *postValidator) contentMaxLength(post *domain.Post) error {
	if utf8.RuneCountInString(post.Content) > PostContentMaxLength {
		return errs.Errorf(errs.EINVALID, "Post content max length is %d characters.", PostContentMaxLength)
	}
	return nil
}

// imagesMaxCount makes sure that a post references at most PostImagesMax images.
func (pv *postValidator) imagesMaxCount(post *domain.Post) error {
	if len(post.Images) > PostImagesMax {
		return errs.Errorf(errs.EINVALID, "Too many images, not more than %d allowed.", PostImagesMax)
	}
	return nil
}

// create stores the data from the Post object in a new database record.
func (pg *postGorm) create(ctx context.Context, post *domain.Post) error {
	err := pg.db.WithContext(ctx).Create(post).Error
	return errors.WithMessage(err, "create post")
}

// Detail retrieves a single post with its comments and counts one more view.
// The counter is incremented in the database, so concurrent views are never lost.
func (pg *postGorm) Detail(ctx context.Context, id int, viewer *domain.User) (*domain.PostView, error) {
	return pg.byID(ctx, id, viewer, true)
}

// byID loads a post view with its comments, optionally counting a view first.
func (pg *postGorm) byID(ctx context.Context, id int, viewer *domain.User, countView bool) (*domain.PostView, error) {
	db := pg.db.WithContext(ctx)
	if countView {
		res := db.Model(&domain.Post{}).
			Where("id = ?", id).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
		if res.Error != nil {
			return nil, errors.WithMessage(res.Error, "count post view")
		}
		if res.RowsAffected == 0 {
			return nil, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
		}
	}
	var post domain.Post
	err := db.
		Scopes(preloadPostSets).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at asc").Order("comments.id asc")
		}).
		Preload("Comments.Author").
		Preload("Comments.Likes").
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "The post does not exist.")
	}
	view := postView(&post, viewer)
	view.Comments = make([]domain.CommentView, 0, len(post.Comments))
	for i := range post.Comments {
		view.Comments = append(view.Comments, commentView(&post.Comments[i], viewer))
	}
	return &view, nil
}

// List retrieves a page of posts matching the query.
func (pg *postGorm) List(ctx context.Context, q domain.PostQuery, viewer *domain.User) (*domain.Page[domain.PostView], error) {
	filter := func(db *gorm.DB) *gorm.DB {
		if q.AuthorID > 0 {
			db = db.Where("posts.author_id = ?", q.AuthorID)
		}
		if kw := strings.TrimSpace(q.Keyword); kw != "" {
			p := likePattern(kw)
			db = db.Where("(LOWER(posts.title) LIKE ? ESCAPE '\\' OR LOWER(posts.content) LIKE ? ESCAPE '\\')", p, p)
		}
		return db
	}
	page, err := pg.page(ctx, q.PageRequest, viewer, filter, postOrder(q.Order))
	if err != nil || q.Comments <= 0 {
		return page, err
	}
	return page, pg.attachComments(ctx, page.Items, q.Comments, viewer)
}

// attachComments loads the newest n comments of every post of a page.
func (pg *postGorm) attachComments(ctx context.Context, posts []domain.PostView, n int, viewer *domain.User) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	var comments []domain.Comment
	err := pg.db.WithContext(ctx).
		Preload("Author").
		Preload("Likes").
		Where("post_id IN ?", ids).
		Order("created_at desc").
		Order("id desc").
		Find(&comments).Error
	if err != nil {
		return errors.WithMessage(err, "list post comments")
	}
	byPost := map[int][]domain.CommentView{}
	for i := range comments {
		c := &comments[i]
		if len(byPost[c.PostID]) < n {
			byPost[c.PostID] = append(byPost[c.PostID], commentView(c, viewer))
		}
	}
	for i := range posts {
		posts[i].Comments = byPost[posts[i].ID]
		if posts[i].Comments == nil {
			posts[i].Comments = []domain.CommentView{}
		}
	}
	return nil
}

// Favorites retrieves the posts a user has bookmarked, most recently bookmarked first.
func (pg *postGorm) Favorites(ctx context.Context, userID int, req domain.PageRequest, viewer *domain.User) (*domain.Page[domain.PostView], error) {
	return pg.through(ctx, "post_favorites", userID, req, viewer)
}

// Liked retrieves the posts a user likes, most recently liked first.
func (pg *postGorm) Liked(ctx context.Context, userID int, req domain.PageRequest, viewer *domain.User) (*domain.Page[domain.PostView], error) {
	return pg.through(ctx, "post_likes", userID, req, viewer)
}

// through lists the posts related to a user by one of the (user_id, post_id) join tables.
func (pg *postGorm) through(ctx context.Context, table string, userID int, req domain.PageRequest, viewer *domain.User) (*domain.Page[domain.PostView], error) {
	if err := pg.db.WithContext(ctx).First(&domain.User{}, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "The user does not exist.")
	}
	filter := func(db *gorm.DB) *gorm.DB {
		return db.
			Joins("JOIN "+table+" ON "+table+".post_id = posts.id").
			Where(table+".user_id = ?", userID)
	}
	order := func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".created_at desc").Order(table + ".id desc")
	}
	return pg.page(ctx, req, viewer, filter, order)
}

// page runs a filtered, ordered and paginated post query. The total is counted
// with the same filter scope as the page, so the two can't drift apart.
func (pg *postGorm) page(ctx context.Context, req domain.PageRequest, viewer *domain.User, filter, order func(*gorm.DB) *gorm.DB) (*domain.Page[domain.PostView], error) {
	req, err := pg.limits.Normalize(req)
	if err != nil {
		return nil, err
	}
	db := pg.db.WithContext(ctx)

	var total int64
	if err := db.Model(&domain.Post{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, errors.WithMessage(err, "count posts")
	}
	var posts []domain.Post
	err = db.
		Scopes(filter, order, preloadPostSets).
		Offset(req.Offset()).
		Limit(req.PageSize).
		Find(&posts).Error
	if err != nil {
		return nil, errors.WithMessage(err, "list posts")
	}

	views := make([]domain.PostView, 0, len(posts))
	for i := range posts {
		views = append(views, postView(&posts[i], viewer))
	}
	return domain.NewPage(views, total, req), nil
}

// preloadPostSets loads everything postView needs: the author and the join sets
// the counts are computed from.
func preloadPostSets(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Likes").
		Preload("Favorites").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "post_id")
		})
}

// postOrder returns the order scope of a post listing. mostLiked and
// mostCommented rank by counting the live join rows, ties go to the newest post.
func postOrder(o domain.Order) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch o {
		case domain.OrderOldest:
			return db.Order("posts.created_at asc").Order("posts.id asc")
		case domain.OrderHot:
			db = db.Order("posts.view_count desc")
		case domain.OrderMostLiked:
			db = db.Order("(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) desc")
		case domain.OrderMostCommented:
			db = db.Order("(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) desc")
		case domain.OrderRandom:
			return db.Order("RANDOM()")
		}
		return db.Order("posts.created_at desc").Order("posts.id desc")
	}
}

// postView builds the view of a post for a viewer from its preloaded sets.
// isLiked and isFavorited scan the loaded sets for the viewer.
func postView(p *domain.Post, viewer *domain.User) domain.PostView {
	v := domain.PostView{
		ID:           p.ID,
		Title:        p.Title,
		Content:      p.Content,
		Images:       p.Images,
		ViewCount:    p.ViewCount,
		LikeCount:    len(p.Likes),
		CommentCount: len(p.Comments),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if v.Images == nil {
		v.Images = []string{}
	}
	if p.Author != nil {
		v.Author = p.Author.Summary()
	}
	if id := viewerID(viewer); id != 0 {
		for _, l := range p.Likes {
			if l.UserID == id {
				v.IsLiked = true
				break
			}
		}
		for _, f := range p.Favorites {
			if f.UserID == id {
				v.IsFavorited = true
				break
			}
		}
	}
	return v
}

// Delete removes a post with its likes, favorites, comments and comment likes.
// The post row is locked before the permission check, and nothing is removed
// unless the requester is the author or an admin.
func (pg *postGorm) Delete(ctx context.Context, id int, requester *domain.User) (*domain.CascadeReport, error) {
	if requester == nil {
		return nil, errs.AuthRequired
	}
	var report *domain.CascadeReport
	err := pg.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, id)
		if err != nil {
			return err
		}
		if !mayModify(requester, post.AuthorID) {
			return errs.Errorf(errs.EFORBIDDEN, "You are not allowed to delete this post.")
		}
		c := newCascade(tx, "post", id)
		if err := c.posts([]int{id}); err != nil {
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
