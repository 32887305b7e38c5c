package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForAppointment(t *testing.T) {
	t.Run("prefers appointment number", func(t *testing.T) {
		got := ForAppointment(4412, "2026-03-01", "Jane", "Doe", "1 Elm St", "Patches")
		assert.Equal(t, "4412", got)
	})

	t.Run("zero number falls back to digest", func(t *testing.T) {
		got := ForAppointment(0, "2026-03-01", "Jane", "Doe", "1 Elm St", "Patches")
		assert.True(t, strings.HasPrefix(got, HashPrefix))
		assert.Len(t, got, len(HashPrefix)+32)
	})

	t.Run("digest is stable across calls", func(t *testing.T) {
		a := ForAppointment(0, "2026-03-01", "Jane", "Doe", "1 Elm St", "Patches")
		b := ForAppointment(0, "2026-03-01", "Jane", "Doe", "1 Elm St", "Patches")
		assert.Equal(t, a, b)
	})

	t.Run("digest ignores whitespace and casing drift", func(t *testing.T) {
		a := ForAppointment(0, "2026-03-01", "Jane", "Doe", "1 Elm St", "Patches")
		b := ForAppointment(0, "2026-03-01", "  JANE ", "doe", "1  ELM St", "patches ")
		assert.Equal(t, a, b)
	})

	t.Run("different identifying fields differ", func(t *testing.T) {
		a := ForAppointment(0, "2026-03-01", "Jane", "Doe", "1 Elm St", "Patches")
		b := ForAppointment(0, "2026-03-02", "Jane", "Doe", "1 Elm St", "Patches")
		assert.NotEqual(t, a, b)
	})
}

func TestForSubmission(t *testing.T) {
	t.Run("record ID wins", func(t *testing.T) {
		got := ForSubmission("recA1B2C3", "2026-01-05 10:30", "a@x.com", "555-123-4567", "1 Elm St")
		assert.Equal(t, "recA1B2C3", got)
	})

	t.Run("fallback digest normalizes contact fields", func(t *testing.T) {
		a := ForSubmission("", "2026-01-05 10:30", "A@X.com", "(555) 123-4567", "1 Elm St.")
		b := ForSubmission("", "2026-01-05 10:30", "a@x.com", "5551234567", "1 elm st")
		assert.Equal(t, a, b)
		assert.True(t, strings.HasPrefix(a, HashPrefix))
	})
}

func TestContentHash(t *testing.T) {
	t.Run("identical input identical hash", func(t *testing.T) {
		a := ContentHash("2026-03-01", "Jane", "Doe", "note text")
		b := ContentHash("2026-03-01", "Jane", "Doe", "note text")
		assert.Equal(t, a, b)
		assert.Len(t, a, 32)
	})

	t.Run("any field change changes hash", func(t *testing.T) {
		base := ContentHash("2026-03-01", "Jane", "Doe", "note text")
		assert.NotEqual(t, base, ContentHash("2026-03-01", "Jane", "Doe", "note text edited"))
		assert.NotEqual(t, base, ContentHash("2026-03-02", "Jane", "Doe", "note text"))
	})

	t.Run("field boundaries are not ambiguous", func(t *testing.T) {
		// "ab","c" must differ from "a","bc"
		assert.NotEqual(t, ContentHash("ab", "c"), ContentHash("a", "bc"))
	})
}
