package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"animeHub/domain"
)

// LocalStore keeps avatars on the local filesystem below Dir, in one directory
// per user: <Dir>/avatars/<user id>/<name>. The files are served under BaseURL.
type LocalStore struct {
	Dir     string
	BaseURL string
}

// NewLocalStore returns a LocalStore writing to dir and serving from baseURL, e.g. "/uploads".
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}
}

var _ domain.AvatarStore = &LocalStore{}

// Put copies the avatar into the user's directory and returns its url.
func (s *LocalStore) Put(_ context.Context, avatar *domain.Avatar) (string, error) {
	rel := avatarKey(avatar)
	path := filepath.Join(s.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", errors.WithMessage(err, "create avatar directory")
	}
	dst, err := os.Create(path)
	if err != nil {
		return "", errors.WithMessage(err, "create avatar file")
	}
	defer dst.Close()
	if _, err := io.Copy(dst, avatar.File); err != nil {
		os.Remove(path)
		return "", errors.WithMessage(err, "write avatar file")
	}
	return s.BaseURL + "/" + rel, nil
}

// Delete removes a stored avatar. Urls not served by this store are ignored.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	rel, ok := strings.CutPrefix(url, s.BaseURL+"/")
	if !ok || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return errors.WithMessage(err, "remove avatar file")
	}
	return nil
}

// avatarKey is the slash separated location of an avatar below a store's root.
func avatarKey(avatar *domain.Avatar) string {
	return "avatars/" + strconv.Itoa(avatar.OwnerID) + "/" + avatar.Filename
}
