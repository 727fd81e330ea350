package domain

import (
	"context"
	"time"
)

// DocumentEvent is one delivery of a live document subscription.
type DocumentEvent struct {
	Exists bool
	Data   []byte
	Err    error
}

type DocumentStore interface {
	// Get returns the raw stored document or ErrDocumentNotFound.
	Get(ctx context.Context, uid string) ([]byte, error)

	// Merge upserts the document: fields in the patch replace their stored
	// counterpart, every other field is preserved.
	Merge(ctx context.Context, uid string, patch DocumentPatch) error

	// Subscribe delivers the current document immediately and then once per
	// change, until ctx is done. The channel is closed on exit.
	Subscribe(ctx context.Context, uid string) (<-chan DocumentEvent, error)
}

type Blob struct {
	Key         string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

type BlobStore interface {
	// Put stores data under key and returns the public URL referencing it.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Open reads a blob by key.
	Open(ctx context.Context, key string) (*Blob, error)

	// Delete removes the blob a URL returned by Put points to. Blobs of any
	// other owner are reported as ErrBlobNotFound and left in place.
	Delete(ctx context.Context, owner, url string) error
}

// LocalStore is on-device key-value storage. It only ever holds the
// onboarding flags.
type LocalStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// PhotoKey is the blob namespace of one photo of one user on one date.
func PhotoKey(uid, date, filename string) string {
	return "users/" + uid + "/photos/" + date + "/" + filename
}

// LocalFlagKey scopes a device flag to the signed-in user.
func LocalFlagKey(uid, flag string) string {
	return "users/" + uid + "/" + flag
}
