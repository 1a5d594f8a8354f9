package metadata

import (
	"fmt"
	"io"

	"github.com/cozy/goexif2/exif"
)

// readEXIF pulls DateTimeOriginal (falling back to DateTime) and the GPS
// position out of an image. Non-critical decode errors still leave usable
// fields behind, so they are not fatal.
func readEXIF(r io.Reader) (raw, error) {
	var out raw

	x, err := exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return out, fmt.Errorf("decoding exif: %w", err)
	}

	if ts, err := x.DateTime(); err == nil {
		out.capturedAt = ts
	}
	if lat, lon, err := x.LatLong(); err == nil {
		out.lat, out.lon, out.hasCoords = lat, lon, true
	}
	return out, nil
}
