package crud

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"animeHub/domain"
	"animeHub/errs"
)

// AvatarService manages avatar uploads.
// It implements the domain.AvatarService interface.
type AvatarService struct {
	avatarValidator
}

// avatarValidator runs validations on incoming Avatar data.
// On success, it passes the data on to avatarCrud.
// Otherwise, it returns the error of the validation that has failed.
type avatarValidator struct {
	maxBytes int64
	avatarCrud
}

// avatarCrud stores avatars and points the user at them.
// It assumes that data has been validated.
type avatarCrud struct {
	store domain.AvatarStore
	users *UserService
}

// NewAvatarService returns an instance of AvatarService.
func NewAvatarService(store domain.AvatarStore, users *UserService, maxBytes int64) *AvatarService {
	if maxBytes <= 0 || maxBytes > domain.MaxAvatarBytes {
		maxBytes = domain.MaxAvatarBytes
	}
	return &AvatarService{
		avatarValidator{
			maxBytes: maxBytes,
			avatarCrud: avatarCrud{
				store: store,
				users: users,
			},
		},
	}
}

// Ensure the AvatarService struct properly implements the domain.AvatarService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.AvatarService = &AvatarService{}

// Upload runs validations needed for storing an uploaded avatar.
func (av *avatarValidator) Upload(ctx context.Context, user *domain.User, avatar *domain.Avatar) (*domain.User, error) {
	if user == nil {
		return nil, errs.AuthRequired
	}
	avatar.OwnerID = user.ID
	err := runAvatarValFns(avatar,
		av.belowMaxSize,
		av.contentTypeValid,
		av.fileNameUnique)
	if err != nil {
		return nil, err
	}
	return av.avatarCrud.upload(ctx, user, avatar)
}

// runAvatarValFns runs any number of functions of type avatarValFn on the passed in Avatar object.
func runAvatarValFns(avatar *domain.Avatar, fns ...avatarValFn) error {
	for _, fn := range fns {
		if err := fn(avatar); err != nil {
			return err
		}
	}
	return nil
}

// An avatarValFn is any function that takes in a pointer to a domain.Avatar object and returns an error.
type avatarValFn func(avatar *domain.Avatar) error

// belowMaxSize makes sure that the avatar does not exceed the upload limit.
func (av *avatarValidator) belowMaxSize(avatar *domain.Avatar) error {
	size, err := avatar.File.Seek(0, io.SeekEnd)
	if err != nil {
		return errors.WithMessage(err, "measure avatar")
	}
	if err := rewind(avatar); err != nil {
		return err
	}
	if size == 0 {
		return errs.Errorf(errs.EINVALID, "The uploaded file is empty.")
	}
	if size > av.maxBytes {
		return errs.Errorf(errs.EINVALID, "The avatar exceeds the upload size limit of %dMB.", av.maxBytes>>20)
	}
	avatar.Size = size
	return nil
}

// contentTypeValid sniffs the first bytes of the file and makes sure it's a jpeg, png or gif.
// The declared content type and filename are not trusted.
func (av *avatarValidator) contentTypeValid(avatar *domain.Avatar) error {
	buffer := make([]byte, 512)
	n, err := avatar.File.Read(buffer)
	if err != nil && err != io.EOF {
		return errors.WithMessage(err, "read avatar")
	}
	if err := rewind(avatar); err != nil {
		return err
	}
	contentType := http.DetectContentType(buffer[:n])
	ext, ok := domain.AvatarContentTypes[contentType]
	if !ok {
		return errs.Errorf(errs.EINVALID, "Invalid file type, the avatar must be a jpeg, png or gif image.")
	}
	avatar.ContentType = contentType
	avatar.Extension = ext
	return nil
}

// fileNameUnique replaces the avatar's name with a random one, keeping the sniffed extension.
func (av *avatarValidator) fileNameUnique(avatar *domain.Avatar) error {
	avatar.Filename = uuid.NewString() + avatar.Extension
	return nil
}

// rewind sets the file pointer back to beginning of the file,
// so that subsequent reads can properly read from the beginning again.
func rewind(avatar *domain.Avatar) error {
	_, err := avatar.File.Seek(0, io.SeekStart)
	return errors.WithMessage(err, "rewind avatar")
}

// upload stores the file, points the user at it and removes the previous upload.
// If the user can't be updated, the new file is removed again.
func (ac *avatarCrud) upload(ctx context.Context, user *domain.User, avatar *domain.Avatar) (*domain.User, error) {
	url, err := ac.store.Put(ctx, avatar)
	if err != nil {
		return nil, errors.WithMessage(err, "store avatar")
	}
	avatar.URL = url
	previous := user.Avatar
	if err := ac.users.SetAvatar(ctx, user, url); err != nil {
		if derr := ac.store.Delete(ctx, url); derr != nil {
			logrus.WithError(derr).WithField("url", url).Warn("[crud] orphaned avatar")
		}
		return nil, err
	}
	if isUpload(previous) {
		if err := ac.store.Delete(ctx, previous); err != nil {
			logrus.WithError(err).WithField("url", previous).Warn("[crud] could not remove previous avatar")
		}
	}
	return user, nil
}

// isUpload reports whether an avatar url points at a stored upload rather than
// an external picture.
func isUpload(url string) bool {
	if url == "" {
		return false
	}
	_, ok := domain.AvatarContentTypes["image/"+strings.TrimPrefix(filepath.Ext(url), ".")]
	return ok
}
