// Package docstore stores uploaded document images (licenses, vehicle and
// profile photos) and hands back stable references. References are content
// hashes, so re-uploading identical bytes yields the same reference.
package docstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound signals a reference with no stored document behind it.
var ErrNotFound = errors.New("docstore: document not found")

// Store accepts image payloads and returns stable references that the user
// directory persists alongside profiles.
type Store interface {
	Put(ctx context.Context, content io.Reader, contentType string) (string, error)
	Get(ctx context.Context, ref string) (io.ReadCloser, error)
}
