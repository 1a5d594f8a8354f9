package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectKey identifies where an uploaded photo lives in the bucket.
type ObjectKey struct {
	UserID   string
	TripID   uuid.UUID
	PhotoID  uuid.UUID
	Filename string
}

// String renders users/{user}/trips/{trip}/photos/{photo}-{filename}.
// The filename is reduced to its base name and restricted to a safe alphabet.
func (k ObjectKey) String() string {
	return "users/" + safeSegment(k.UserID) +
		"/trips/" + k.TripID.String() +
		"/photos/" + k.PhotoID.String() + "-" + safeSegment(path.Base(k.Filename))
}

func safeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
	if s == "" || s == "." || s == "/" {
		return "file"
	}
	return s
}
