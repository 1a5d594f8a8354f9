package domain

import (
	"slices"
	"time"
)

// UnknownDateLabel labels the trailing group of photos without a captured-at timestamp.
const UnknownDateLabel = "Unknown Date"

// DayGroup is a calendar day ("2006-01-02") or UnknownDateLabel paired with
// the photos taken on it. Derived per request, never persisted.
type DayGroup struct {
	Label  string
	Photos []Photo
}

// GroupByDay partitions photos into calendar-day buckets in ascending date
// order, photos within a bucket ascending by captured-at. Undated photos are
// appended as a single UnknownDateLabel group in their original order.
//
// Labels are the date part of the captured-at instant in UTC, the frame
// timestamps are stored and served in. The server's local zone never applies.
//
// photos is not modified. Empty input yields an empty, non-nil slice.
func GroupByDay(photos []Photo) []DayGroup {
	var dated, undated []Photo
	for _, p := range photos {
		if p.CapturedAt == nil {
			undated = append(undated, p)
			continue
		}
		dated = append(dated, p)
	}

	slices.SortStableFunc(dated, func(a, b Photo) int {
		return a.CapturedAt.Compare(*b.CapturedAt)
	})

	groups := []DayGroup{}
	index := make(map[string]int)
	for _, p := range dated {
		label := p.CapturedAt.UTC().Format(time.DateOnly)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, DayGroup{Label: label})
		}
		groups[i].Photos = append(groups[i].Photos, p)
	}

	if len(undated) > 0 {
		groups = append(groups, DayGroup{Label: UnknownDateLabel, Photos: undated})
	}
	return groups
}
