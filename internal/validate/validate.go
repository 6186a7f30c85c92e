// Package validate holds the stateless input checks shared by the hub and
// the REST handlers.
package validate

import "unicode/utf8"

const (
	MaxTitleLength = 100
	MaxNameLength  = 20

	// Canonical length of a UUID string; the check is length-only.
	documentIDLength = 36
)

// DocumentID reports whether id is the seeded "default" id or a
// UUID-length identifier.
func DocumentID(id string) bool {
	return id == "default" || len(id) == documentIDLength
}

// Title reports whether a document title is non-empty and within bounds.
// Limits count characters, not bytes, so multibyte titles are not penalized.
func Title(title string) bool {
	n := utf8.RuneCountInString(title)
	return n >= 1 && n <= MaxTitleLength
}

// Name reports whether a display name is within bounds. Empty is allowed;
// the hub falls back to a generated name.
func Name(name string) bool {
	return utf8.RuneCountInString(name) <= MaxNameLength
}

// ContentSize reports whether content fits under the configured limit.
func ContentSize(content string, maxSize int) bool {
	return len(content) <= maxSize
}

// RoomUnderCapacity reports whether one more participant fits.
func RoomUnderCapacity(count, maxUsers int) bool {
	return count < maxUsers
}
