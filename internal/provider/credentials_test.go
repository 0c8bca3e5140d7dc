package provider_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/driplinehq/dripline-backend/internal/provider"
)

func writeCreds(t *testing.T, path, token string) {
	t.Helper()
	content := "access_token: " + token + "\nchannel_secret: sec\nendpoint: https://push.example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestCredentialStoreLoadAndRotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	writeCreds(t, path, "token-one")

	store := provider.NewCredentialStore(path, zerolog.Nop())
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if got := store.Snapshot().AccessToken; got != "token-one" {
		t.Fatalf("expected token-one, got %q", got)
	}

	// Rotation: rewrite the file, reload, and the snapshot follows.
	writeCreds(t, path, "token-two")
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if got := store.Snapshot().AccessToken; got != "token-two" {
		t.Fatalf("expected token-two after rotation, got %q", got)
	}
}

func TestCredentialStoreKeepsLastGoodSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	writeCreds(t, path, "good-token")

	store := provider.NewCredentialStore(path, zerolog.Nop())
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}

	// A broken rewrite must not clobber the working credentials.
	if err := os.WriteFile(path, []byte("access_token: \"\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := store.Load(); err == nil {
		t.Fatal("expected validation error for empty token")
	}
	if got := store.Snapshot().AccessToken; got != "good-token" {
		t.Fatalf("snapshot should be unchanged, got %q", got)
	}
}
