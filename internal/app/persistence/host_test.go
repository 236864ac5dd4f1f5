package persistence

import "testing"

func TestHost_InitializeIsIdempotent(t *testing.T) {
	var h Host
	first, created := h.Initialize(Options{StandardProfileID: "one"})
	if !created || first == nil {
		t.Fatalf("expected first initialize to create")
	}
	second, created := h.Initialize(Options{StandardProfileID: "two"})
	if created {
		t.Fatalf("expected duplicate initialize to be discarded")
	}
	if second != first {
		t.Fatalf("expected existing orchestrator to be returned")
	}
	if got := h.Orchestrator().ActiveProfile(); got != "one" {
		t.Fatalf("active profile: got=%q want=%q", got, "one")
	}
}
