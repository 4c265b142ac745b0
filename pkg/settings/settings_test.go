package settings

import (
	"path/filepath"
	"testing"

	"github.com/vogelsang/vogelsang/pkg/trading"
)

type noopLogger struct{}

func (l *noopLogger) Debugf(format string, args ...interface{})   {}
func (l *noopLogger) Infof(format string, args ...interface{})    {}
func (l *noopLogger) Warningf(format string, args ...interface{}) {}
func (l *noopLogger) Errorf(format string, args ...interface{})   {}
func (l *noopLogger) Fatalf(format string, args ...interface{})   {}

func (l *noopLogger) WithField(key string, value interface{}) trading.Logger {
	return l
}

func (l *noopLogger) WithFields(fields map[string]interface{}) trading.Logger {
	return l
}

func newTestStore(t *testing.T, path string) *Store {
	store, err := NewStore(path, &noopLogger{})
	if err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}
	return store
}

func TestAddAndListAssets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yml")
	store := newTestStore(t, path)

	if err := store.Add("332111", "MSFT"); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}
	if err := store.Add("331868", "AAPL"); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	assets := store.Assets()
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets, got [%v]", len(assets))
	}

	if !store.Contains("332111") {
		t.Fatalf("expected asset 332111 tracked")
	}

	// Re-adding only refreshes the name.
	if err := store.Add("332111", "Microsoft Corp"); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	assets = store.Assets()
	if len(assets) != 2 {
		t.Fatalf("expected 2 assets after re-add, got [%v]", len(assets))
	}
	if assets[0].Name != "Microsoft Corp" {
		t.Fatalf("expected refreshed name, got [%v]", assets[0].Name)
	}
}

func TestAssetsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yml")

	store := newTestStore(t, path)
	if err := store.Add("332111", "MSFT"); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	reopened := newTestStore(t, path)
	if !reopened.Contains("332111") {
		t.Fatalf("expected asset to survive reopen")
	}
}

func TestDeleteParksAssetAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yml")
	store := newTestStore(t, path)

	if err := store.Add("332111", "MSFT"); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}

	if err := store.Delete("332111"); err != nil {
		t.Fatalf("unexpected error: [%v]", err)
	}
	if store.Contains("332111") {
		t.Fatalf("expected asset untracked after delete")
	}

	// Double delete is a no-op.
	if err := store.Delete("332111"); err != nil {
		t.Fatalf("unexpected error on second delete: [%v]", err)
	}

	// Deleting an id that never existed is a no-op too.
	if err := store.Delete("absent"); err != nil {
		t.Fatalf("unexpected error on absent delete: [%v]", err)
	}

	// The deleted asset is parked, not forgotten.
	reopened := newTestStore(t, path)
	if len(reopened.disabled) != 1 || reopened.disabled[0].ID != "332111" {
		t.Fatalf("expected asset parked on disabled list, got [%v]", reopened.disabled)
	}
}
