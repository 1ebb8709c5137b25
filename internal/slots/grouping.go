// Package slots groups a doctor's available slots by calendar date and
// filters the approved-doctor directory for the booking flow.
package slots

import (
	"errors"
	"sort"
	"time"

	"github.com/medvault/patient-portal/internal/portal"
)

// AllDates is the date filter value that keeps every group.
const AllDates = "All"

// DateKeyLayout renders a group key such as "Monday, March 2, 2026".
const DateKeyLayout = "Monday, January 2, 2006"

// DateGroup holds the slots starting on one local calendar date, in source order.
type DateGroup struct {
	Key   string        `json:"date"`
	Date  time.Time     `json:"-"`
	Slots []portal.Slot `json:"slots"`
}

// Grouping is the result of GroupByDate. Groups are ordered most-recent date
// first; Excluded lists slots whose start time could not be parsed.
type Grouping struct {
	Groups   []DateGroup          `json:"groups"`
	Excluded []*portal.ParseError `json:"-"`
}

// GroupByDate buckets slots by the local calendar date (in loc) of their start
// time. A slot with a malformed start time is left out of every group and
// reported in Excluded instead.
func GroupByDate(slots []portal.Slot, loc *time.Location) Grouping {
	if loc == nil {
		loc = time.Local
	}
	byKey := make(map[string]int)
	grouping := Grouping{Groups: []DateGroup{}}

	for _, slot := range slots {
		start, err := slot.Start(loc)
		if err != nil {
			var pe *portal.ParseError
			if errors.As(err, &pe) {
				grouping.Excluded = append(grouping.Excluded, pe)
			}
			continue
		}
		key := start.Format(DateKeyLayout)
		idx, ok := byKey[key]
		if !ok {
			y, m, d := start.Date()
			grouping.Groups = append(grouping.Groups, DateGroup{Key: key, Date: time.Date(y, m, d, 0, 0, 0, 0, loc)})
			idx = len(grouping.Groups) - 1
			byKey[key] = idx
		}
		grouping.Groups[idx].Slots = append(grouping.Groups[idx].Slots, slot)
	}

	sort.SliceStable(grouping.Groups, func(i, j int) bool {
		return grouping.Groups[i].Date.After(grouping.Groups[j].Date)
	})
	return grouping
}

// Keys lists the group keys in display order, for a date dropdown.
func (g Grouping) Keys() []string {
	keys := make([]string, 0, len(g.Groups))
	for _, group := range g.Groups {
		keys = append(keys, group.Key)
	}
	return keys
}

// Filter returns every group for AllDates (or an empty filter), otherwise
// only the group whose key matches exactly.
func (g Grouping) Filter(dateKey string) []DateGroup {
	if dateKey == "" || dateKey == AllDates {
		return g.Groups
	}
	for _, group := range g.Groups {
		if group.Key == dateKey {
			return []DateGroup{group}
		}
	}
	return []DateGroup{}
}

// Count returns the number of grouped slots.
func (g Grouping) Count() int {
	n := 0
	for _, group := range g.Groups {
		n += len(group.Slots)
	}
	return n
}

// Bookable keeps available slots that start strictly after now. Slots with
// malformed start times are dropped.
func Bookable(slots []portal.Slot, now time.Time, loc *time.Location) []portal.Slot {
	out := make([]portal.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.Availability() != portal.Available {
			continue
		}
		start, err := slot.Start(loc)
		if err != nil || !start.After(now) {
			continue
		}
		out = append(out, slot)
	}
	return out
}
