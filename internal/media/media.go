// Package media talks to the object store that hosts uploaded videos and images.
package media

import (
	"context"
	"errors"
)

// ErrUnavailable indicates no media host has been configured.
var ErrUnavailable = errors.New("media storage unavailable")

// Asset is an uploaded file on the media host.
type Asset struct {
	URL      string
	PublicID string
	// Duration is the playback length in seconds, zero for non-video files.
	Duration float64
}

// Service uploads local files to the media host and removes them again.
type Service interface {
	// Upload publishes the file at localPath. The local file is removed whether or
	// not the upload succeeds.
	Upload(ctx context.Context, localPath string) (Asset, error)
	Delete(ctx context.Context, publicID string) error
	// PublicID recovers the public id from a URL previously returned by Upload.
	PublicID(url string) (string, bool)
}
