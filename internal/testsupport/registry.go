package testsupport

import (
	"testing"

	"prankweb-sync/internal/config"
	"prankweb-sync/internal/registry"
)

// MustOpenRegistry opens the registry store for tests.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg.Paths.DataDir)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	return store
}

// SeedEntry inserts an entry with the given code and status.
func SeedEntry(t testing.TB, store *registry.Store, code string, status registry.Status) registry.Entry {
	t.Helper()

	entry := registry.Entry{
		Code:           code,
		Status:         registry.StatusNew,
		CreateDate:     "2026-08-01T00:00:00Z",
		PDBReleaseDate: "2026-07-30T00:00:00Z",
	}
	if err := store.Insert(entry); err != nil {
		t.Fatalf("store.Insert(%s): %v", code, err)
	}
	// Walk the legal transition path to the requested status.
	var path []registry.Status
	switch status {
	case registry.StatusNew:
	case registry.StatusConverted, registry.StatusEmpty, registry.StatusFunPDBEFailed:
		path = []registry.Status{registry.StatusPredicted, status}
	default:
		path = []registry.Status{status}
	}
	for _, step := range path {
		entry.Status = step
		if err := store.Update(entry); err != nil {
			t.Fatalf("store.Update(%s -> %s): %v", code, step, err)
		}
	}
	entry.Code = registry.CanonicalCode(code)
	return entry
}
