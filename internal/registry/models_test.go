package registry_test

import (
	"testing"

	"prankweb-sync/internal/registry"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  registry.Status
		ok    bool
	}{
		{"new", registry.StatusNew, true},
		{" Predicted ", registry.StatusPredicted, true},
		{"PRANKWEB_QUEUED", registry.StatusPrankwebQueued, true},
		{"funpdbe_failed", registry.StatusFunPDBEFailed, true},
		{"", "", false},
		{"bogus", "", false},
	}
	for _, tc := range cases {
		got, ok := registry.ParseStatus(tc.input)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseStatus(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStatusPredicates(t *testing.T) {
	pollable := map[registry.Status]bool{
		registry.StatusNew:            true,
		registry.StatusPrankwebQueued: true,
	}
	convertible := map[registry.Status]bool{
		registry.StatusPredicted: true,
	}
	terminal := map[registry.Status]bool{
		registry.StatusConverted: true,
		registry.StatusEmpty:     true,
	}
	for _, status := range registry.AllStatuses() {
		if got := status.Pollable(); got != pollable[status] {
			t.Errorf("%s.Pollable() = %v", status, got)
		}
		if got := status.Convertible(); got != convertible[status] {
			t.Errorf("%s.Convertible() = %v", status, got)
		}
		if got := status.Terminal(); got != terminal[status] {
			t.Errorf("%s.Terminal() = %v", status, got)
		}
	}
}

func TestValidTransition(t *testing.T) {
	allowed := []struct{ from, to registry.Status }{
		{registry.StatusNew, registry.StatusPrankwebQueued},
		{registry.StatusNew, registry.StatusPredicted},
		{registry.StatusNew, registry.StatusPrankwebFailed},
		{registry.StatusPrankwebQueued, registry.StatusPredicted},
		{registry.StatusPrankwebQueued, registry.StatusPrankwebFailed},
		{registry.StatusPredicted, registry.StatusConverted},
		{registry.StatusPredicted, registry.StatusEmpty},
		{registry.StatusPredicted, registry.StatusFunPDBEFailed},
	}
	for _, tc := range allowed {
		if !registry.ValidTransition(tc.from, tc.to) {
			t.Errorf("ValidTransition(%s, %s) = false, want true", tc.from, tc.to)
		}
	}

	// Same-status updates are always legal.
	for _, status := range registry.AllStatuses() {
		if !registry.ValidTransition(status, status) {
			t.Errorf("ValidTransition(%s, %s) = false, want true", status, status)
		}
	}

	// No status ever transitions back into "new", and terminal or failed
	// statuses have no outgoing edges.
	for _, from := range registry.AllStatuses() {
		if from != registry.StatusNew && registry.ValidTransition(from, registry.StatusNew) {
			t.Errorf("ValidTransition(%s, new) = true, want false", from)
		}
	}
	for _, from := range []registry.Status{
		registry.StatusConverted,
		registry.StatusEmpty,
		registry.StatusPrankwebFailed,
		registry.StatusFunPDBEFailed,
	} {
		for _, to := range registry.AllStatuses() {
			if to != from && registry.ValidTransition(from, to) {
				t.Errorf("ValidTransition(%s, %s) = true, want false", from, to)
			}
		}
	}
}

func TestCanonicalCodeAndShard(t *testing.T) {
	if got := registry.CanonicalCode(" 2src "); got != "2SRC" {
		t.Errorf("CanonicalCode = %q, want 2SRC", got)
	}
	if got := registry.Shard("2SRC"); got != "2s" {
		t.Errorf("Shard = %q, want 2s", got)
	}
	if got := registry.Shard("x"); got != "x" {
		t.Errorf("Shard short code = %q, want x", got)
	}
}
