package testfixtures

import "testing"

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("contact")

	first := gen.Next()
	second := gen.Next()

	if first != "contact-1" || second != "contact-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
}

func TestIDGeneratorReset(t *testing.T) {
	gen := NewIDGenerator("event")
	_ = gen.Next()
	gen.Reset("session")

	if next := gen.Next(); next != "session-1" {
		t.Fatalf("expected session-1 after reset, got %q", next)
	}

	gen.Reset("")
	if next := gen.Next(); next != "session-1" {
		t.Fatalf("expected the prefix to survive an empty reset, got %q", next)
	}
}
