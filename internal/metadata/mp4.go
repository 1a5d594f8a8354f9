package metadata

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/abema/go-mp4"
)

// mp4EpochOffset is the number of seconds between 1904-01-01 (the ISO/IEC
// 14496-12 epoch) and the Unix epoch.
const mp4EpochOffset = 2082844800

// xyzBox is the user-data box some cameras use for location ("©xyz").
var xyzBox = mp4.BoxType{0xA9, 'x', 'y', 'z'}

// xyzCoords matches "+50.1234-101.1234+000.000/" style ISO 6709 strings.
var xyzCoords = regexp.MustCompile(`([+-]\d+\.\d+)([+-]\d+\.\d+)`)

// readMP4 walks the box tree for the movie header creation time (track
// header as fallback) and the ©xyz location box.
func readMP4(r io.ReadSeeker) (raw, error) {
	var out raw

	_, err := mp4.ReadBoxStructure(r, func(h *mp4.ReadHandle) (any, error) {
		if h.BoxInfo.IsSupportedType() && h.BoxInfo.Type != mp4.BoxTypeMdat() {
			box, _, err := h.ReadPayload()
			if err != nil {
				return nil, fmt.Errorf("reading %s payload: %w", h.BoxInfo.Type, err)
			}
			switch b := box.(type) {
			case *mp4.Mvhd:
				if ts := mp4Time(b.GetCreationTime()); !ts.IsZero() {
					out.capturedAt = ts
				}
			case *mp4.Tkhd:
				if out.capturedAt.IsZero() {
					out.capturedAt = mp4Time(b.GetCreationTime())
				}
			}
			return h.Expand()
		}

		if h.BoxInfo.Context.UnderUdta && h.BoxInfo.Type == xyzBox {
			var buf bytes.Buffer
			if _, err := h.ReadData(&buf); err != nil {
				return nil, fmt.Errorf("reading ©xyz: %w", err)
			}
			if lat, lon, ok := parseXYZ(buf.String()); ok {
				out.lat, out.lon, out.hasCoords = lat, lon, true
			}
		}
		return nil, nil
	})
	if err != nil {
		return out, fmt.Errorf("reading mp4 boxes: %w", err)
	}
	return out, nil
}

// mp4Time converts seconds since 1904 to a time. Zero and pre-1970 values
// are treated as unset.
func mp4Time(secs uint64) time.Time {
	if secs <= mp4EpochOffset {
		return time.Time{}
	}
	return time.Unix(int64(secs-mp4EpochOffset), 0).UTC() //nolint:gosec // bounded by the check above
}

func parseXYZ(s string) (lat, lon float64, ok bool) {
	m := xyzCoords.FindStringSubmatch(s)
	if len(m) < 3 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
