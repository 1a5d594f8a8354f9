// Package metadata extracts the capture time and location embedded in an
// uploaded photo or video. Extraction is best effort: malformed or missing
// metadata yields an empty Result, never an error, so ingestion can always
// proceed.
package metadata

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"time"
)

// earliestCapture rejects camera clocks that were never set.
var earliestCapture = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// Result holds whatever could be extracted. Latitude and Longitude are
// either both set or both nil.
type Result struct {
	CapturedAt *time.Time
	Latitude   *float64
	Longitude  *float64
}

// Empty reports whether nothing was extracted.
func (r Result) Empty() bool {
	return r.CapturedAt == nil && r.Latitude == nil
}

// raw is what a format-specific reader found before validation.
type raw struct {
	capturedAt time.Time
	lat, lon   float64
	hasCoords  bool
}

// Extract reads embedded metadata from data according to contentType.
// Images are read as EXIF; MP4 and QuickTime videos as ISO-BMFF boxes.
// Any other content type yields an empty Result.
func Extract(data []byte, contentType string) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("metadata parser panicked", "content_type", contentType, "panic", p)
			res = Result{}
		}
	}()

	var (
		found raw
		err   error
	)
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		found, err = readEXIF(bytes.NewReader(data))
	case ct == "video/mp4", ct == "video/quicktime":
		found, err = readMP4(bytes.NewReader(data))
	default:
		return Result{}
	}
	if err != nil {
		slog.Debug("metadata extraction failed", "content_type", contentType, "error", err)
	}
	return normalize(found)
}

// normalize keeps only a plausible timestamp and a valid coordinate pair.
func normalize(r raw) Result {
	var res Result
	if !r.capturedAt.IsZero() && r.capturedAt.After(earliestCapture) {
		ts := r.capturedAt.UTC()
		res.CapturedAt = &ts
	}
	if r.hasCoords && validLatitude(r.lat) && validLongitude(r.lon) {
		lat, lon := r.lat, r.lon
		res.Latitude = &lat
		res.Longitude = &lon
	}
	return res
}

func validLatitude(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -90 && v <= 90
}

func validLongitude(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= -180 && v <= 180
}
