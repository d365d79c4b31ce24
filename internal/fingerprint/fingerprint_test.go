package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntity() Entity {
	return Entity{
		ID:            "law-001",
		Name:          "Labor Standards Act",
		Number:        "Act No. 49",
		Category:      "labor",
		Status:        "in_force",
		PromulgatedAt: "1947-04-07",
		LastRevisedAt: "2020-04-01",
		Body:          "Article 1. Working conditions shall be...",
	}
}

func TestCanonicalize(t *testing.T) {
	t.Run("collapses line endings and whitespace runs", func(t *testing.T) {
		assert.Equal(t, "a b c", Canonicalize("a\r\nb\rc"))
		assert.Equal(t, "a b", Canonicalize("  a \t\t b  "))
	})

	t.Run("empty stays empty", func(t *testing.T) {
		assert.Equal(t, "", Canonicalize("   \r\n \t "))
	})
}

func TestFingerprint_Determinism(t *testing.T) {
	e := sampleEntity()
	first := Fingerprint(e)
	require.Len(t, first, 64)
	assert.Equal(t, first, Fingerprint(e))
}

func TestFingerprint_WhitespaceInsensitive(t *testing.T) {
	a := sampleEntity()
	b := sampleEntity()
	b.Name = "  Labor \t Standards\r\nAct "
	b.Body = "Article 1.  Working   conditions shall be..."

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_Sensitivity(t *testing.T) {
	base := Fingerprint(sampleEntity())

	mutations := map[string]func(*Entity){
		"name":          func(e *Entity) { e.Name = "Labor Standards Act (Amended)" },
		"number":        func(e *Entity) { e.Number = "Act No. 50" },
		"category":      func(e *Entity) { e.Category = "tax" },
		"status":        func(e *Entity) { e.Status = "abolished" },
		"promulgatedAt": func(e *Entity) { e.PromulgatedAt = "1948-01-01" },
		"lastRevisedAt": func(e *Entity) { e.LastRevisedAt = "2026-02-28" },
		"body":          func(e *Entity) { e.Body = "Article 1. Revised text." },
	}
	for field, mutate := range mutations {
		t.Run(field, func(t *testing.T) {
			e := sampleEntity()
			mutate(&e)
			assert.NotEqual(t, base, Fingerprint(e), "changing %s must change the digest", field)
		})
	}
}

func TestFingerprint_MissingOptionalFields(t *testing.T) {
	e := sampleEntity()
	e.Body = ""
	withEmpty := Fingerprint(e)
	require.Len(t, withEmpty, 64)
	assert.NotEqual(t, Fingerprint(sampleEntity()), withEmpty)
}

func TestChangedFields(t *testing.T) {
	t.Run("identical entities yield no fields", func(t *testing.T) {
		assert.Empty(t, ChangedFields(sampleEntity(), sampleEntity()))
	})

	t.Run("whitespace-only differences yield no fields", func(t *testing.T) {
		b := sampleEntity()
		b.Name = " Labor  Standards\nAct "
		assert.Empty(t, ChangedFields(sampleEntity(), b))
	})

	t.Run("returns exactly the differing fields", func(t *testing.T) {
		b := sampleEntity()
		b.Status = "abolished"
		b.LastRevisedAt = "2024-06-01"
		assert.ElementsMatch(t,
			[]string{FieldStatus, FieldLastRevisedAt},
			ChangedFields(sampleEntity(), b))
	})
}
