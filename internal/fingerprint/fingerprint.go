// Package fingerprint computes durable content digests for legal instruments.
//
// Whitespace formatting never affects a digest: every string field is
// canonicalized before hashing, so two fetches of the same instrument with
// different line endings produce the same fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Comparable field names, as stored in change detections.
const (
	FieldName          = "name"
	FieldNumber        = "number"
	FieldCategory      = "category"
	FieldStatus        = "status"
	FieldPromulgatedAt = "promulgatedAt"
	FieldLastRevisedAt = "lastRevisedAt"
	FieldBody          = "body"
)

// Entity is the comparable view of an instrument. Missing optional fields are
// empty strings.
type Entity struct {
	ID            string
	Name          string
	Number        string
	Category      string
	Status        string
	PromulgatedAt string
	LastRevisedAt string
	Body          string
}

// Canonicalize collapses line-ending variants to \n, then runs of whitespace
// to a single space, then trims. Equal content under any whitespace formatting
// canonicalizes identically.
func Canonicalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Join(strings.Fields(s), " ")
}

// Fingerprint returns the lowercase hex SHA-256 digest over the entity's
// canonicalized fields in field-name-sorted order.
func Fingerprint(e Entity) string {
	// json.Marshal renders map keys sorted, which gives the field-name-sorted
	// structured representation the digest is defined over.
	canonical := map[string]string{
		"id":               Canonicalize(e.ID),
		FieldName:          Canonicalize(e.Name),
		FieldNumber:        Canonicalize(e.Number),
		FieldCategory:      Canonicalize(e.Category),
		FieldStatus:        Canonicalize(e.Status),
		FieldPromulgatedAt: Canonicalize(e.PromulgatedAt),
		FieldLastRevisedAt: Canonicalize(e.LastRevisedAt),
		FieldBody:          Canonicalize(e.Body),
	}
	data, _ := json.Marshal(canonical)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ChangedFields compares two entities field by field and returns exactly the
// names of the comparable fields that differ, after canonicalization.
func ChangedFields(old, new Entity) []string {
	var changed []string
	fields := []struct {
		name     string
		old, new string
	}{
		{FieldName, old.Name, new.Name},
		{FieldNumber, old.Number, new.Number},
		{FieldCategory, old.Category, new.Category},
		{FieldStatus, old.Status, new.Status},
		{FieldPromulgatedAt, old.PromulgatedAt, new.PromulgatedAt},
		{FieldLastRevisedAt, old.LastRevisedAt, new.LastRevisedAt},
		{FieldBody, old.Body, new.Body},
	}
	for _, f := range fields {
		if Canonicalize(f.old) != Canonicalize(f.new) {
			changed = append(changed, f.name)
		}
	}
	return changed
}
