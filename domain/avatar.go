package domain

import (
	"context"
	"io"
)

// MaxAvatarBytes is the largest avatar upload accepted.
const MaxAvatarBytes = 5 << 20

// AvatarContentTypes maps the accepted avatar content types to their file extension.
var AvatarContentTypes = map[string]string{
	"image/jpeg": ".jpeg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Avatar is an uploaded avatar image on its way to an AvatarStore.
type Avatar struct {
	File        io.ReadSeeker
	Filename    string
	Extension   string
	ContentType string
	Size        int64
	OwnerID     int
	URL         string
}

// AvatarStore persists avatar images and returns the url they are served under.
type AvatarStore interface {
	Put(ctx context.Context, avatar *Avatar) (string, error)
	Delete(ctx context.Context, url string) error
}

// AvatarService validates and stores avatar uploads.
type AvatarService interface {
	Upload(ctx context.Context, user *User, avatar *Avatar) (*User, error)
}
