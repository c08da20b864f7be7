package crud

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"animeHub/domain"
	"animeHub/errs"
)

// toggler flips the presence of a relation row R between an actor and a target.
// The storage keeps (actorColumn, targetColumn) unique, so two concurrent
// activations can't both insert: the loser's duplicate key error is taken as
// "already active".
type toggler[R any] struct {
	db           *gorm.DB
	target       interface{}
	targetName   string
	actorColumn  string
	targetColumn string
	noSelf       string
	newRow       func(actor, target int) *R
}

// toggle removes the relation row if it exists and creates it otherwise, all in
// one transaction. It returns the new state and the relation count of the target.
func (t *toggler[R]) toggle(ctx context.Context, actor, target int) (*domain.Toggled, error) {
	if actor <= 0 {
		return nil, errs.UserIdValid
	}
	if t.noSelf != "" && actor == target {
		return nil, errs.Errorf(errs.EINVALID, "%s", t.noSelf)
	}
	if target <= 0 {
		return nil, errs.Errorf(errs.ENOTFOUND, "The %s does not exist.", t.targetName)
	}

	var out domain.Toggled
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := t.lock(tx, actor, target); err != nil {
			return err
		}

		pair := map[string]interface{}{t.actorColumn: actor, t.targetColumn: target}
		res := tx.Where(pair).Delete(new(R))
		if res.Error != nil {
			return errors.WithMessagef(res.Error, "toggle %s: remove", t.targetName)
		}
		out.Active = res.RowsAffected == 0
		if out.Active {
			// The savepoint keeps the transaction usable when the insert loses a race.
			err := tx.Transaction(func(sp *gorm.DB) error {
				return sp.Create(t.newRow(actor, target)).Error
			})
			if err != nil && !isDuplicate(err) {
				return errors.WithMessagef(err, "toggle %s: insert", t.targetName)
			}
		}

		err := tx.Model(new(R)).Where(t.targetColumn+" = ?", target).Count(&out.Count).Error
		return errors.WithMessagef(err, "toggle %s: count", t.targetName)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// lock takes row locks on the actor and the target before the relation row is
// touched, so toggles of one pair run one after another and a cascade deleting
// either side can't interleave. Rows are locked users first, each table in id order.
func (t *toggler[R]) lock(tx *gorm.DB, actor, target int) error {
	userIDs := []int{actor}
	if _, ok := t.target.(*domain.User); ok {
		userIDs = append(userIDs, target)
	}
	users, err := lockIDs(tx, &domain.User{}, userIDs)
	if err != nil {
		return errors.WithMessagef(err, "toggle %s: lock users", t.targetName)
	}
	if !users[actor] {
		return errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
	}
	if len(userIDs) == 2 {
		if !users[target] {
			return errs.Errorf(errs.ENOTFOUND, "The %s does not exist.", t.targetName)
		}
		return nil
	}

	targets, err := lockIDs(tx, t.target, []int{target})
	if err != nil {
		return errors.WithMessagef(err, "toggle %s: lock target", t.targetName)
	}
	if !targets[target] {
		return errs.Errorf(errs.ENOTFOUND, "The %s does not exist.", t.targetName)
	}
	return nil
}
