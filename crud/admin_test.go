package crud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"animeHub/domain"
	"animeHub/errs"
)

func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	f.user("carol")
	p := f.post(alice, "today")
	f.comment(bob, p.ID, "me too")
	f.comment(alice, p.ID, "reply")

	// An old post and comment by carol are no activity today.
	old := time.Now().UTC().Add(-72 * time.Hour)
	var carol domain.User
	require.NoError(t, f.db.First(&carol, "username = ?", "carol").Error)
	require.NoError(t, f.db.Create(&domain.Post{Title: "old", Content: "old", AuthorID: carol.ID, CreatedAt: old, Images: []string{}}).Error)

	stats, err := f.s.Admin.Stats(f.ctx)
	require.NoError(t, err)
	require.Equal(t, domain.AdminStats{
		TotalUsers:    3,
		TotalPosts:    2,
		TotalComments: 2,
		TodayPosts:    1,
		TodayComments: 2,
		ActiveUsers:   2,
	}, *stats)

	site, err := f.s.Site.Stats(f.ctx)
	require.NoError(t, err)
	require.Equal(t, domain.SiteStats{TotalPosts: 2, TodayPosts: 1, TotalUsers: 3}, *site)
}

func TestAdminUsers(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		f.user(name)
	}

	page, err := f.s.Admin.Users(f.ctx, domain.PageRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, page.Total)
	require.True(t, page.HasMore)
	require.Equal(t, "alice", page.Items[0].Username)
	require.Equal(t, "alice@example.com", page.Items[0].Email)
	require.True(t, page.Items[0].IsActive)
}

func TestSetAdminAndResetPassword(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")

	u, err := f.s.Admin.SetAdmin(f.ctx, alice.ID, true)
	require.NoError(t, err)
	require.True(t, u.IsAdmin)
	u, err = f.s.Admin.SetAdmin(f.ctx, alice.ID, false)
	require.NoError(t, err)
	require.False(t, u.IsAdmin)
	stored, err := f.s.User.ByID(f.ctx, alice.ID)
	require.NoError(t, err)
	require.False(t, stored.IsAdmin)

	_, err = f.s.Admin.SetAdmin(f.ctx, 999, true)
	requireCode(t, errs.ENOTFOUND, err)

	requireCode(t, errs.EINVALID, f.s.Admin.ResetPassword(f.ctx, alice.ID, "123"))
	require.NoError(t, f.s.Admin.ResetPassword(f.ctx, alice.ID, "fresh-pass"))
	_, err = f.s.User.Authenticate(f.ctx, "alice", "fresh-pass")
	require.NoError(t, err)
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)
	root := f.admin("root")
	require.True(t, root.IsAdmin)

	stored, err := f.s.User.ByID(f.ctx, root.ID)
	require.NoError(t, err)
	require.True(t, stored.IsAdmin)

	requireCode(t, errs.ECONFLICT, f.s.Admin.CreateAdmin(f.ctx, &domain.User{Username: "root", Email: "x@example.com", Password: "secret1"}))
}

func TestInspectUser(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	p := f.post(alice, "post")
	f.comment(alice, p.ID, "self reply")
	_, err := f.s.Follow.Toggle(f.ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	inv, err := f.s.Admin.InspectUser(f.ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, inv.HasContent())
	require.EqualValues(t, 1, inv.Posts)
	require.EqualValues(t, 1, inv.Comments)
	require.EqualValues(t, 1, inv.Followers)

	inv, err = f.s.Admin.InspectUser(f.ctx, bob.ID)
	require.NoError(t, err)
	require.False(t, inv.HasContent())
	require.EqualValues(t, 1, inv.Following)
}
