package crud

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"animeHub/domain"
	"animeHub/errs"
)

func TestDeletePostRemovesDependents(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol := f.user("alice"), f.user("bob"), f.user("carol")

	p := f.post(alice, "doomed")
	other := f.post(alice, "survivor")
	c := f.comment(bob, p.ID, "nice")
	kept := f.comment(bob, other.ID, "also nice")

	_, err := f.s.Like.TogglePost(f.ctx, bob.ID, p.ID)
	require.NoError(t, err)
	_, err = f.s.Like.TogglePost(f.ctx, bob.ID, other.ID)
	require.NoError(t, err)
	_, err = f.s.Favorite.Toggle(f.ctx, carol.ID, p.ID)
	require.NoError(t, err)
	_, err = f.s.Like.ToggleComment(f.ctx, carol.ID, c.ID)
	require.NoError(t, err)
	_, err = f.s.Like.ToggleComment(f.ctx, carol.ID, kept.ID)
	require.NoError(t, err)

	report, err := f.s.Post.Delete(f.ctx, p.ID, alice)
	require.NoError(t, err)
	require.Equal(t, "post", report.Entity)
	require.EqualValues(t, 1, report.Rows(StepPostLikes))
	require.EqualValues(t, 1, report.Rows(StepPostFavorites))
	require.EqualValues(t, 1, report.Rows(StepCommentLikes))
	require.EqualValues(t, 1, report.Rows(StepComments))
	require.EqualValues(t, 1, report.Rows(StepPosts))
	require.EqualValues(t, 5, report.Total())

	require.Zero(t, f.count(&domain.Post{}, "id = ?", p.ID))
	require.Zero(t, f.count(&domain.Comment{}, "post_id = ?", p.ID))
	require.Zero(t, f.count(&domain.PostLike{}, "post_id = ?", p.ID))
	require.Zero(t, f.count(&domain.PostFavorite{}, "post_id = ?", p.ID))
	require.Zero(t, f.count(&domain.CommentLike{}, "comment_id = ?", c.ID))

	// The other post keeps everything.
	require.EqualValues(t, 1, f.count(&domain.Comment{}, "post_id = ?", other.ID))
	require.EqualValues(t, 1, f.count(&domain.PostLike{}, "post_id = ?", other.ID))
	require.EqualValues(t, 1, f.count(&domain.CommentLike{}, "comment_id = ?", kept.ID))

	_, err = f.s.Post.Detail(f.ctx, p.ID, nil)
	requireCode(t, errs.ENOTFOUND, err)
}

func TestDeletePostPermissions(t *testing.T) {
	f := newFixture(t)
	alice, bob, root := f.user("alice"), f.user("bob"), f.admin("root")
	p := f.post(alice, "mine")
	f.comment(bob, p.ID, "hello")

	_, err := f.s.Post.Delete(f.ctx, p.ID, bob)
	requireCode(t, errs.EFORBIDDEN, err)
	require.EqualValues(t, 1, f.count(&domain.Comment{}, "post_id = ?", p.ID))

	_, err = f.s.Post.Delete(f.ctx, p.ID, nil)
	requireCode(t, errs.EUNAUTHORIZED, err)

	_, err = f.s.Post.Delete(f.ctx, p.ID+100, alice)
	requireCode(t, errs.ENOTFOUND, err)

	_, err = f.s.Post.Delete(f.ctx, p.ID, root)
	require.NoError(t, err)
	require.Zero(t, f.count(&domain.Post{}, "id = ?", p.ID))
}

func TestDeleteCommentRemovesLikes(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	p := f.post(alice, "post")
	c := f.comment(bob, p.ID, "first")
	f.comment(bob, p.ID, "second")
	_, err := f.s.Like.ToggleComment(f.ctx, alice.ID, c.ID)
	require.NoError(t, err)

	// The post author is not the comment author.
	_, err = f.s.Comment.Delete(f.ctx, c.ID, alice)
	requireCode(t, errs.EFORBIDDEN, err)

	report, err := f.s.Comment.Delete(f.ctx, c.ID, bob)
	require.NoError(t, err)
	require.EqualValues(t, 1, report.Rows(StepCommentLikes))
	require.EqualValues(t, 1, report.Rows(StepComments))
	require.Zero(t, f.count(&domain.CommentLike{}, "comment_id = ?", c.ID))
	require.EqualValues(t, 1, f.count(&domain.Comment{}, "post_id = ?", p.ID))
}

// seedAuthor gives victim 2 posts and 5 comments plus every kind of relation
// in both directions, and gives bystander content of their own.
func seedAuthor(f *fixture, victim, bystander *domain.User) (bystanderPost *domain.PostView) {
	f.t.Helper()
	require := require.New(f.t)

	own := f.posts(victim, "victim post", 2)
	bystanderPost = f.post(bystander, "bystander post")

	var comments []*domain.CommentView
	for i := 0; i < 3; i++ {
		comments = append(comments, f.comment(victim, bystanderPost.ID, "victim on bystander"))
	}
	for i := 0; i < 2; i++ {
		comments = append(comments, f.comment(victim, own[0].ID, "victim on own"))
	}
	theirs := f.comment(bystander, own[1].ID, "bystander on victim")
	mine := f.comment(bystander, bystanderPost.ID, "bystander on own")

	for _, toggle := range []func() (*domain.Toggled, error){
		func() (*domain.Toggled, error) { return f.s.Like.TogglePost(f.ctx, victim.ID, bystanderPost.ID) },
		func() (*domain.Toggled, error) { return f.s.Like.TogglePost(f.ctx, bystander.ID, own[0].ID) },
		func() (*domain.Toggled, error) { return f.s.Favorite.Toggle(f.ctx, victim.ID, bystanderPost.ID) },
		func() (*domain.Toggled, error) { return f.s.Favorite.Toggle(f.ctx, bystander.ID, own[1].ID) },
		func() (*domain.Toggled, error) { return f.s.Like.ToggleComment(f.ctx, victim.ID, mine.ID) },
		func() (*domain.Toggled, error) { return f.s.Like.ToggleComment(f.ctx, bystander.ID, comments[0].ID) },
		func() (*domain.Toggled, error) { return f.s.Like.ToggleComment(f.ctx, bystander.ID, theirs.ID) },
		func() (*domain.Toggled, error) { return f.s.Follow.Toggle(f.ctx, victim.ID, bystander.ID) },
		func() (*domain.Toggled, error) { return f.s.Follow.Toggle(f.ctx, bystander.ID, victim.ID) },
	} {
		res, err := toggle()
		require.NoError(err)
		require.True(res.Active)
	}
	return bystanderPost
}

func TestDeleteUserRefusedWithoutForce(t *testing.T) {
	f := newFixture(t)
	root := f.admin("root")
	victim, bystander := f.user("victim"), f.user("bystander")
	seedAuthor(f, victim, bystander)

	deletion, err := f.s.Admin.DeleteUser(f.ctx, victim.ID, root, false)
	requireCode(t, errs.EINVALID, err)
	require.NotNil(t, deletion)
	require.False(t, deletion.Deleted)
	require.Nil(t, deletion.Report)
	require.Equal(t, domain.UserInventory{
		UserID:       victim.ID,
		Username:     "victim",
		Posts:        2,
		Comments:     5,
		PostLikes:    1,
		CommentLikes: 1,
		Favorites:    1,
		Followers:    1,
		Following:    1,
	}, deletion.Inventory)

	// Nothing was removed.
	require.EqualValues(t, 1, f.count(&domain.User{}, "id = ?", victim.ID))
	require.EqualValues(t, 2, f.count(&domain.Post{}, "author_id = ?", victim.ID))
	require.EqualValues(t, 5, f.count(&domain.Comment{}, "author_id = ?", victim.ID))
}

func TestDeleteUserWithForce(t *testing.T) {
	f := newFixture(t)
	root := f.admin("root")
	victim, bystander := f.user("victim"), f.user("bystander")
	bystanderPost := seedAuthor(f, victim, bystander)

	deletion, err := f.s.Admin.DeleteUser(f.ctx, victim.ID, root, true)
	require.NoError(t, err)
	require.True(t, deletion.Deleted)
	report := deletion.Report
	require.EqualValues(t, 1, report.Rows(StepUser))
	require.EqualValues(t, 5, report.Rows(StepCommentsByUser))
	require.EqualValues(t, 1, report.Rows(StepComments))
	require.EqualValues(t, 2, report.Rows(StepPosts))
	require.EqualValues(t, 1, report.Rows(StepFollowsAsFollower))
	require.EqualValues(t, 1, report.Rows(StepFollowsAsFollowing))

	// Nothing references the user anymore.
	require.Zero(t, f.count(&domain.User{}, "id = ?", victim.ID))
	require.Zero(t, f.count(&domain.Post{}, "author_id = ?", victim.ID))
	require.Zero(t, f.count(&domain.Comment{}, "author_id = ?", victim.ID))
	require.Zero(t, f.count(&domain.PostLike{}, "user_id = ?", victim.ID))
	require.Zero(t, f.count(&domain.CommentLike{}, "user_id = ?", victim.ID))
	require.Zero(t, f.count(&domain.PostFavorite{}, "user_id = ?", victim.ID))
	require.Zero(t, f.count(&domain.Follow{}, "follower_id = ? OR following_id = ?", victim.ID, victim.ID))

	// Nothing dangles.
	require.Zero(t, f.count(&domain.Comment{}, "post_id NOT IN (SELECT id FROM posts)"))
	require.Zero(t, f.count(&domain.PostLike{}, "post_id NOT IN (SELECT id FROM posts)"))
	require.Zero(t, f.count(&domain.PostFavorite{}, "post_id NOT IN (SELECT id FROM posts)"))
	require.Zero(t, f.count(&domain.CommentLike{}, "comment_id NOT IN (SELECT id FROM comments)"))

	// The bystander keeps their own post and their comment on it.
	require.EqualValues(t, 1, f.count(&domain.Post{}, "id = ?", bystanderPost.ID))
	require.EqualValues(t, 1, f.count(&domain.Comment{}, "author_id = ?", bystander.ID))
	require.EqualValues(t, 1, f.count(&domain.User{}, "id = ?", bystander.ID))
}

func TestDeleteUserIsAtomic(t *testing.T) {
	f := newFixture(t)
	root := f.admin("root")
	victim, bystander := f.user("victim"), f.user("bystander")
	seedAuthor(f, victim, bystander)

	// Fail the cascade at its second to last step.
	const name = "test:fail_follows"
	require.NoError(t, f.db.Callback().Delete().Before("gorm:delete").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == "follows" {
			tx.AddError(errors.New("injected failure"))
		}
	}))

	_, err := f.s.Admin.DeleteUser(f.ctx, victim.ID, root, true)
	requireCode(t, errs.EINTERNAL, err)
	require.NoError(t, f.db.Callback().Delete().Remove(name))

	// Every earlier step was rolled back.
	require.EqualValues(t, 1, f.count(&domain.User{}, "id = ?", victim.ID))
	require.EqualValues(t, 2, f.count(&domain.Post{}, "author_id = ?", victim.ID))
	require.EqualValues(t, 5, f.count(&domain.Comment{}, "author_id = ?", victim.ID))
	require.EqualValues(t, 1, f.count(&domain.PostLike{}, "user_id = ?", victim.ID))
	require.EqualValues(t, 1, f.count(&domain.CommentLike{}, "user_id = ?", victim.ID))
	require.EqualValues(t, 2, f.count(&domain.Follow{}, "follower_id = ? OR following_id = ?", victim.ID, victim.ID))
}

func TestDeleteUserPermissions(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")

	_, err := f.s.Admin.DeleteUser(f.ctx, alice.ID, bob, true)
	requireCode(t, errs.EFORBIDDEN, err)

	_, err = f.s.Admin.DeleteUser(f.ctx, alice.ID, nil, true)
	requireCode(t, errs.EUNAUTHORIZED, err)

	_, err = f.s.Admin.DeleteUser(f.ctx, 999, f.admin("root"), true)
	requireCode(t, errs.ENOTFOUND, err)

	// A user without content can be deleted without force, by themself.
	deletion, err := f.s.Admin.DeleteUser(f.ctx, alice.ID, alice, false)
	require.NoError(t, err)
	require.True(t, deletion.Deleted)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	p := f.post(alice, "post")
	f.comment(bob, p.ID, "hey")

	_, err := f.s.User.DeleteAccount(f.ctx, alice, "wrong-password")
	requireCode(t, errs.EINVALID, err)

	report, err := f.s.User.DeleteAccount(f.ctx, alice, "secret1")
	require.NoError(t, err)
	require.EqualValues(t, 1, report.Rows(StepPosts))
	require.EqualValues(t, 1, report.Rows(StepComments))
	require.Zero(t, f.count(&domain.User{}, "id = ?", alice.ID))
	require.Zero(t, f.count(&domain.Comment{}, "author_id = ?", bob.ID))
}

func TestBatchDelete(t *testing.T) {
	f := newFixture(t)
	alice, root := f.user("alice"), f.admin("root")
	ps := f.posts(alice, "post", 3)
	c1 := f.comment(alice, ps[2].ID, "one")
	c2 := f.comment(alice, ps[2].ID, "two")

	_, err := f.s.Admin.DeletePosts(f.ctx, []int{ps[0].ID}, alice)
	requireCode(t, errs.EFORBIDDEN, err)

	_, err = f.s.Admin.DeletePosts(f.ctx, nil, root)
	requireCode(t, errs.EINVALID, err)

	// Missing and repeated ids are skipped.
	n, err := f.s.Admin.DeletePosts(f.ctx, []int{ps[0].ID, ps[1].ID, ps[1].ID, 999}, root)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.EqualValues(t, 1, f.count(&domain.Post{}, "1 = 1"))

	n, err = f.s.Admin.DeleteComments(f.ctx, []int{c1.ID, c2.ID, 999}, root)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Zero(t, f.count(&domain.Comment{}, "1 = 1"))
}
