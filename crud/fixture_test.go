package crud

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"animeHub/auth"
	"animeHub/database"
	"animeHub/domain"
	"animeHub/errs"
)

// fixture is an in-memory database with every service on top of it.
type fixture struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB
	s   *Services
}

func newFixture(t *testing.T, cfgs ...ServicesConfig) *fixture {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), database.GormConfig(true))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// Every connection to :memory: is a database of its own.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return fixtureOn(t, gdb, cfgs...)
}

// fixtureOn migrates gdb and builds every service on top of it.
func fixtureOn(t *testing.T, gdb *gorm.DB, cfgs ...ServicesConfig) *fixture {
	t.Helper()
	require.NoError(t, database.AutoMigrate(&database.DB{Gorm: gdb}))

	creds := auth.NewCredentials("pepper", "secret", time.Hour, auth.WithCost(bcrypt.MinCost))
	all := append(cfgs,
		WithUser(creds),
		WithPost(),
		WithComment(),
		WithLike(),
		WithFavorite(),
		WithFollow(),
		WithAdmin(),
		WithSite(),
	)
	s, err := NewServices(gdb, all...)
	require.NoError(t, err)
	return &fixture{t: t, ctx: context.Background(), db: gdb, s: s}
}

func (f *fixture) user(name string) *domain.User {
	f.t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", Password: "secret1"}
	require.NoError(f.t, f.s.User.Register(f.ctx, u))
	return u
}

func (f *fixture) admin(name string) *domain.User {
	f.t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", Password: "secret1"}
	require.NoError(f.t, f.s.Admin.CreateAdmin(f.ctx, u))
	return u
}

func (f *fixture) post(author *domain.User, title string) *domain.PostView {
	f.t.Helper()
	content := "body of " + title
	p, err := f.s.Post.Create(f.ctx, author, domain.PostInput{Title: &title, Content: &content})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) comment(author *domain.User, postID int, content string) *domain.CommentView {
	f.t.Helper()
	c, err := f.s.Comment.Create(f.ctx, author, postID, content)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) count(model interface{}, query string, args ...interface{}) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

// posts creates n posts titled "<prefix> 1" to "<prefix> n".
func (f *fixture) posts(author *domain.User, prefix string, n int) []*domain.PostView {
	f.t.Helper()
	out := make([]*domain.PostView, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, f.post(author, fmt.Sprintf("%s %d", prefix, i)))
	}
	return out
}

// requireCode asserts that err is an application error with the given code.
func requireCode(t *testing.T, code string, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, errs.ErrorCode(err), "unexpected error: %v", err)
}
