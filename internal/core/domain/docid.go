package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	// unsafeIDChars matches every character not allowed in a sanitized cite key.
	unsafeIDChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

	// repeatedUnderscores collapses runs produced by sanitization.
	repeatedUnderscores = regexp.MustCompile(`_+`)

	// documentIDPattern is the externally-imposed document id format:
	// sanitized cite key, underscore, 12 hex chars of the content hash.
	documentIDPattern = regexp.MustCompile(`^[\w\-.]+_[a-f0-9]{12}$`)
)

// NewDocumentID derives a stable document identifier from the document's
// raw content and its human-readable cite key:
//
//	sanitize(citeKey) + "_" + hex(sha256(content))[:12]
//
// The same content under the same key always yields the same id, so
// re-ingestion overwrites rather than duplicates. Different content under
// the same key never collides because the hash suffix differs.
func NewDocumentID(citeKey string, content []byte) string {
	sum := sha256.Sum256(content)
	return SanitizeCiteKey(citeKey) + "_" + hex.EncodeToString(sum[:])[:12]
}

// SanitizeCiteKey replaces every character outside [A-Za-z0-9_.-] with an
// underscore, collapses repeated underscores, and strips leading and
// trailing underscores.
func SanitizeCiteKey(citeKey string) string {
	safe := unsafeIDChars.ReplaceAllString(citeKey, "_")
	safe = repeatedUnderscores.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}

// ValidDocumentID reports whether id matches the required pattern
// ^[\w\-.]+_[a-f0-9]{12}$.
func ValidDocumentID(id string) bool {
	return documentIDPattern.MatchString(id)
}
