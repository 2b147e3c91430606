// Package keys derives the storage names used for an asset's renditions: the
// stable per-asset folder id, the per-publication path token and the full
// object keys under vod/.
package keys

import (
	"crypto/md5"
	"encoding/base64"
	"path"
	"strconv"
	"time"
)

// RootPrefix is the top-level prefix every rendition lives under.
const RootPrefix = "vod"

// tokenLead is how far ahead of now the path token timestamp is taken.
const tokenLead = time.Hour

// Deriver computes folder ids and path tokens from a shared secret.
type Deriver struct {
	secret string
	now    func() time.Time
}

// Option customises a Deriver.
type Option func(*Deriver)

// WithClock replaces the wall clock used for path tokens.
func WithClock(now func() time.Time) Option {
	return func(d *Deriver) {
		if now != nil {
			d.now = now
		}
	}
}

// New returns a Deriver keyed by secret.
func New(secret string, opts ...Option) *Deriver {
	d := &Deriver{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AssetFolderID returns the URL-safe, unpadded base64 of MD5(secret + assetID).
// The same secret and id always produce the same folder id.
func (d *Deriver) AssetFolderID(assetID int64) string {
	return d.hash(strconv.FormatInt(assetID, 10))
}

// RenditionPathToken hashes the Unix-millisecond timestamp one hour from now.
// Calls at different milliseconds yield different tokens.
func (d *Deriver) RenditionPathToken() string {
	expires := d.now().Add(tokenLead).UnixMilli()
	return d.hash(strconv.FormatInt(expires, 10))
}

// FolderPrefix returns "vod/{folderId}/", the listing prefix for all of an
// asset's publications.
func (d *Deriver) FolderPrefix(assetID int64) string {
	return path.Join(RootPrefix, d.AssetFolderID(assetID)) + "/"
}

// StorageKey returns "vod/{folderId}/{token}/{fileName}".
func (d *Deriver) StorageKey(assetID int64, token, fileName string) string {
	return path.Join(RootPrefix, d.AssetFolderID(assetID), token, fileName)
}

func (d *Deriver) hash(value string) string {
	sum := md5.Sum([]byte(d.secret + value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
