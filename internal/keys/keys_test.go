package keys_test

import (
	"crypto/md5"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"vodconverter/internal/keys"
)

func TestAssetFolderIDMatchesLegacyEncoding(t *testing.T) {
	d := keys.New("pepper")
	sum := md5.Sum([]byte("pepper42"))
	legacy := base64.StdEncoding.EncodeToString(sum[:])
	legacy = strings.TrimRight(legacy, "=")
	legacy = strings.NewReplacer("+", "-", "/", "_").Replace(legacy)

	if got := d.AssetFolderID(42); got != legacy {
		t.Fatalf("AssetFolderID = %q, want %q", got, legacy)
	}
}

func TestAssetFolderIDDeterministicAndSecretScoped(t *testing.T) {
	a := keys.New("one")
	b := keys.New("two")
	if a.AssetFolderID(7) != a.AssetFolderID(7) {
		t.Fatal("expected deterministic folder id")
	}
	if a.AssetFolderID(7) == b.AssetFolderID(7) {
		t.Fatal("expected folder id to change with secret")
	}
	if a.AssetFolderID(7) == a.AssetFolderID(8) {
		t.Fatal("expected folder id to change with asset id")
	}
	id := a.AssetFolderID(7)
	if strings.ContainsAny(id, "+/=") {
		t.Fatalf("folder id %q is not URL safe", id)
	}
	if len(id) != 22 {
		t.Fatalf("expected 22 characters, got %d", len(id))
	}
}

func TestRenditionPathTokenUsesClockOneHourAhead(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	current := base
	d := keys.New("pepper", keys.WithClock(func() time.Time { return current }))

	first := d.RenditionPathToken()
	if first != d.RenditionPathToken() {
		t.Fatal("expected identical token for identical instant")
	}
	current = base.Add(time.Millisecond)
	if second := d.RenditionPathToken(); second == first {
		t.Fatal("expected distinct tokens across instants")
	}

	sum := md5.Sum([]byte("pepper1700003600000"))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	current = base
	if got := d.RenditionPathToken(); got != want {
		t.Fatalf("token = %q, want %q", got, want)
	}
}

func TestStorageKeyLayout(t *testing.T) {
	d := keys.New("pepper")
	folder := d.AssetFolderID(3)
	key := d.StorageKey(3, "tok", "_720p.mp4")
	if key != "vod/"+folder+"/tok/_720p.mp4" {
		t.Fatalf("unexpected key %q", key)
	}
	if prefix := d.FolderPrefix(3); prefix != "vod/"+folder+"/" {
		t.Fatalf("unexpected prefix %q", prefix)
	}
	if !strings.HasPrefix(key, d.FolderPrefix(3)) {
		t.Fatal("expected key under folder prefix")
	}
}
