package crud

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"animeHub/domain"
	"animeHub/errs"
)

func TestTogglePostLikeScenario(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	title, body := "title", "body"
	p, err := f.s.Post.Create(f.ctx, a, domain.PostInput{Title: &title, Content: &body})
	require.NoError(t, err)

	res, err := f.s.Like.TogglePost(f.ctx, b.ID, p.ID)
	require.NoError(t, err)
	require.True(t, res.Active)
	require.EqualValues(t, 1, res.Count)

	asB, err := f.s.Post.Detail(f.ctx, p.ID, b)
	require.NoError(t, err)
	require.Equal(t, 1, asB.LikeCount)
	require.True(t, asB.IsLiked)
	asA, err := f.s.Post.Detail(f.ctx, p.ID, a)
	require.NoError(t, err)
	require.False(t, asA.IsLiked)

	liked, err := f.s.Post.Liked(f.ctx, b.ID, domain.PageRequest{}, b)
	require.NoError(t, err)
	require.Len(t, liked.Items, 1)

	res, err = f.s.Like.TogglePost(f.ctx, b.ID, p.ID)
	require.NoError(t, err)
	require.False(t, res.Active)
	require.Zero(t, res.Count)

	_, err = f.s.Like.TogglePost(f.ctx, b.ID, p.ID)
	require.NoError(t, err)
	_, err = f.s.Post.Delete(f.ctx, p.ID, a)
	require.NoError(t, err)

	_, err = f.s.Post.Detail(f.ctx, p.ID, b)
	requireCode(t, errs.ENOTFOUND, err)
	liked, err = f.s.Post.Liked(f.ctx, b.ID, domain.PageRequest{}, b)
	require.NoError(t, err)
	require.Empty(t, liked.Items)
	require.Zero(t, liked.Total)
}

// Toggling twice restores the original state, for every kind of relation.
func TestToggleTwiceIsIdentity(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	p := f.post(a, "post")
	c := f.comment(a, p.ID, "comment")

	cases := []struct {
		name   string
		toggle func() (*domain.Toggled, error)
		count  func() int64
	}{
		{"post like", func() (*domain.Toggled, error) { return f.s.Like.TogglePost(f.ctx, b.ID, p.ID) },
			func() int64 { return f.count(&domain.PostLike{}, "post_id = ?", p.ID) }},
		{"comment like", func() (*domain.Toggled, error) { return f.s.Like.ToggleComment(f.ctx, b.ID, c.ID) },
			func() int64 { return f.count(&domain.CommentLike{}, "comment_id = ?", c.ID) }},
		{"favorite", func() (*domain.Toggled, error) { return f.s.Favorite.Toggle(f.ctx, b.ID, p.ID) },
			func() int64 { return f.count(&domain.PostFavorite{}, "post_id = ?", p.ID) }},
		{"follow", func() (*domain.Toggled, error) { return f.s.Follow.Toggle(f.ctx, b.ID, a.ID) },
			func() int64 { return f.count(&domain.Follow{}, "following_id = ?", a.ID) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.count()
			on, err := tc.toggle()
			require.NoError(t, err)
			require.True(t, on.Active)
			require.Equal(t, before+1, on.Count)

			off, err := tc.toggle()
			require.NoError(t, err)
			require.False(t, off.Active)
			require.Equal(t, before, off.Count)
			require.Equal(t, before, tc.count())
		})
	}
}

func TestToggleRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")
	p := f.post(a, "post")

	_, err := f.s.Like.TogglePost(f.ctx, 0, p.ID)
	requireCode(t, errs.EINVALID, err)

	_, err = f.s.Like.TogglePost(f.ctx, a.ID, p.ID+1)
	requireCode(t, errs.ENOTFOUND, err)

	_, err = f.s.Like.ToggleComment(f.ctx, a.ID, 0)
	requireCode(t, errs.ENOTFOUND, err)

	_, err = f.s.Favorite.Toggle(f.ctx, a.ID, 12345)
	requireCode(t, errs.ENOTFOUND, err)

	_, err = f.s.Follow.Toggle(f.ctx, a.ID, 999)
	requireCode(t, errs.ENOTFOUND, err)
}

func TestFollowSelfIsRejected(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")

	_, err := f.s.Follow.Toggle(f.ctx, a.ID, a.ID)
	requireCode(t, errs.EINVALID, err)
	require.Zero(t, f.count(&domain.Follow{}, "1 = 1"))
}

// Concurrent toggles by one user never leave more than one row behind.
func TestConcurrentTogglesKeepPairUnique(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	p := f.post(a, "post")

	const n = 8
	var wg sync.WaitGroup
	errc := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.s.Like.TogglePost(f.ctx, b.ID, p.ID)
			errc <- err
		}()
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		require.NoError(t, err)
	}
	// An even number of flips ends where it started.
	require.Zero(t, f.count(&domain.PostLike{}, "post_id = ?", p.ID))
}

func TestFollowLists(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user("alice"), f.user("bob"), f.user("carol")

	for _, follower := range []*domain.User{b, c} {
		res, err := f.s.Follow.Toggle(f.ctx, follower.ID, a.ID)
		require.NoError(t, err)
		require.True(t, res.Active)
	}
	_, err := f.s.Follow.Toggle(f.ctx, a.ID, b.ID)
	require.NoError(t, err)

	followers, err := f.s.Follow.Followers(f.ctx, a.ID, domain.PageRequest{}, a)
	require.NoError(t, err)
	require.EqualValues(t, 2, followers.Total)
	require.Len(t, followers.Items, 2)
	following := map[string]bool{}
	for _, v := range followers.Items {
		following[v.Username] = v.IsFollowing
	}
	// alice follows bob back, not carol.
	require.Equal(t, map[string]bool{"bob": true, "carol": false}, following)

	followed, err := f.s.Follow.Following(f.ctx, b.ID, domain.PageRequest{}, nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, followed.Total)
	require.Equal(t, "alice", followed.Items[0].Username)
	require.False(t, followed.Items[0].IsFollowing)

	_, err = f.s.Follow.Followers(f.ctx, 999, domain.PageRequest{}, nil)
	requireCode(t, errs.ENOTFOUND, err)

	profile, err := f.s.User.Profile(f.ctx, a.ID, b)
	require.NoError(t, err)
	require.EqualValues(t, 2, profile.FollowersCount)
	require.EqualValues(t, 1, profile.FollowingCount)
	require.True(t, profile.IsFollowing)
}

func TestToggleLocksActorAndTarget(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	p := f.post(a, "post")
	c := f.comment(a, p.ID, "comment")

	locked := map[string]int{}
	const name = "test:record_locks"
	require.NoError(t, f.db.Callback().Query().Before("gorm:query").Register(name, func(tx *gorm.DB) {
		if _, ok := tx.Statement.Clauses["FOR"]; ok {
			locked[tx.Statement.Table]++
		}
	}))
	t.Cleanup(func() { f.db.Callback().Query().Remove(name) })

	_, err := f.s.Like.TogglePost(f.ctx, b.ID, p.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"users": 1, "posts": 1}, locked)

	clear(locked)
	_, err = f.s.Like.ToggleComment(f.ctx, b.ID, c.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"users": 1, "comments": 1}, locked)

	clear(locked)
	_, err = f.s.Favorite.Toggle(f.ctx, b.ID, p.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"users": 1, "posts": 1}, locked)

	// Both sides of a follow are locked by one statement.
	clear(locked)
	_, err = f.s.Follow.Toggle(f.ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"users": 1}, locked)
}

func TestToggleByMissingActor(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")
	p := f.post(a, "post")

	_, err := f.s.Like.TogglePost(f.ctx, 999, p.ID)
	requireCode(t, errs.ENOTFOUND, err)
	_, err = f.s.Favorite.Toggle(f.ctx, 999, p.ID)
	requireCode(t, errs.ENOTFOUND, err)
	_, err = f.s.Follow.Toggle(f.ctx, 999, a.ID)
	requireCode(t, errs.ENOTFOUND, err)

	// Nothing points at the missing user.
	require.Zero(t, f.count(&domain.PostLike{}, "user_id = ?", 999))
	require.Zero(t, f.count(&domain.PostFavorite{}, "user_id = ?", 999))
	require.Zero(t, f.count(&domain.Follow{}, "follower_id = ?", 999))
}
