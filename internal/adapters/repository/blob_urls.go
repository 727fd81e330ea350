package repository

import (
	"strings"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

const blobRoute = "/api/v1/blobs/"

// BlobURLs converts between blob keys and the public URLs the API serves
// them under.
type BlobURLs struct {
	prefix string
}

func NewBlobURLs(publicBaseURL string) BlobURLs {
	return BlobURLs{prefix: strings.TrimRight(publicBaseURL, "/") + blobRoute}
}

func (u BlobURLs) URL(key string) string {
	return u.prefix + key
}

// Key returns the blob key a URL points to, or ErrInvalidBlobRef for
// anything that was not produced by URL.
func (u BlobURLs) Key(url string) (string, error) {
	key, ok := strings.CutPrefix(url, u.prefix)
	if !ok || !ValidBlobKey(key) {
		return "", domain.ErrInvalidBlobRef
	}
	return key, nil
}

// OwnedKey is Key restricted to blobs of owner.
func (u BlobURLs) OwnedKey(owner, url string) (string, error) {
	key, err := u.Key(url)
	if err != nil {
		return "", err
	}
	if owner == "" || BlobOwner(key) != owner {
		return "", domain.ErrBlobNotFound
	}
	return key, nil
}

// ValidBlobKey accepts keys of the form users/{uid}/... without empty or
// relative segments.
func ValidBlobKey(key string) bool {
	parts := strings.Split(key, "/")
	if len(parts) < 3 || parts[0] != "users" {
		return false
	}
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			return false
		}
	}
	return true
}

// BlobOwner is the uid a blob key belongs to.
func BlobOwner(key string) string {
	if !ValidBlobKey(key) {
		return ""
	}
	return strings.Split(key, "/")[1]
}
