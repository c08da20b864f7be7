package crud

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"animeHub/domain"
	"animeHub/errs"
)

// pgUniqueViolation is the postgres error code of a unique constraint violation.
const pgUniqueViolation = "23505"

// isDuplicate reports whether err is a unique constraint violation, as translated
// by gorm, as reported by postgres, or as reported by sqlite.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound turns gorm.ErrRecordNotFound into an ENOTFOUND error with the given message.
// Any other error is wrapped with the message for the logs.
func notFound(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Errorf(errs.ENOTFOUND, "%s", msg)
	}
	return errors.WithMessage(err, msg)
}

// forUpdate locks the selected rows until the surrounding transaction ends.
// Dialects without row locks ignore it.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockPost reads a post and locks its row for the rest of the transaction.
func lockPost(tx *gorm.DB, id int) (*domain.Post, error) {
	var post domain.Post
	err := tx.Scopes(forUpdate).First(&post, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "The post does not exist.")
	}
	return &post, nil
}

// lockComment reads a comment and locks its row for the rest of the transaction.
func lockComment(tx *gorm.DB, id int) (*domain.Comment, error) {
	var comment domain.Comment
	err := tx.Scopes(forUpdate).First(&comment, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "The comment does not exist.")
	}
	return &comment, nil
}

// lockUser reads a user and locks its row for the rest of the transaction.
func lockUser(tx *gorm.DB, id int) (*domain.User, error) {
	var user domain.User
	err := tx.Scopes(forUpdate).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "The user does not exist.")
	}
	return &user, nil
}

// lockIDs locks the rows of model with the given ids in ascending id order and
// reports which of them exist. Postgres refuses FOR UPDATE next to an aggregate,
// so the ids are plucked rather than counted.
func lockIDs(tx *gorm.DB, model interface{}, ids []int) (map[int]bool, error) {
	var found []int
	err := tx.Scopes(forUpdate).Model(model).Where("id IN ?", ids).Order("id").Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	exists := make(map[int]bool, len(found))
	for _, id := range found {
		exists[id] = true
	}
	return exists, nil
}

// mayModify reports whether the requester is the owner of a resource or an admin.
func mayModify(requester *domain.User, ownerID int) bool {
	if requester == nil {
		return false
	}
	return requester.ID == ownerID || requester.IsAdmin
}

// viewerID returns the id of the viewer, or 0 for anonymous viewers.
func viewerID(viewer *domain.User) int {
	if viewer == nil {
		return 0
	}
	return viewer.ID
}

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func likePattern(keyword string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(keyword)) + "%"
}
