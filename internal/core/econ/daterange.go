package econ

import (
	"errors"
	"fmt"
	"time"

	v1 "github.com/profitlens/profitlens/internal/api/v1"
)

// ErrInvalidRange marks date ranges that cannot produce at least one bucket
// at the requested granularity, or that reach back further than retention
// allows. Callers map it to a structured query failure.
var ErrInvalidRange = errors.New("invalid date range")

// maxLookback is how far before "now" a query's start date may reach.
const maxLookbackYears = 2

// NormalizeDateRange snaps [start, end] onto calendar-aligned boundaries for
// the requested granularity and returns the ordered bucket sequence covering
// the normalized range. It is a pure function of its inputs.
//
//	DAY:   no snapping; one bucket per day.
//	WEEK:  start snaps forward to a Sunday, end backward to a Saturday;
//	       buckets are consecutive Sunday-Saturday spans.
//	MONTH: start snaps forward to the 1st, end backward to a month-end;
//	       buckets are calendar months.
//	RANGE: the whole normalized interval is a single bucket.
func NormalizeDateRange(start, end v1.Date, g DateGranularity, now time.Time) ([]DateBucket, error) {
	if !ValidDateGranularity(g) {
		return nil, fmt.Errorf("%w: unrecognized date granularity %q", ErrInvalidRange, g)
	}
	if start.After(end.Time) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, start, end)
	}
	if start.Before(v1.DateOf(now).Time.AddDate(-maxLookbackYears, 0, 0)) {
		return nil, fmt.Errorf("%w: start %s is more than %d years in the past", ErrInvalidRange, start, maxLookbackYears)
	}

	switch g {
	case GranularityDay:
		return dayBuckets(start, end), nil
	case GranularityWeek:
		return weekBuckets(start, end)
	case GranularityMonth:
		return monthBuckets(start, end)
	default: // RANGE
		return []DateBucket{{Start: start, End: end, Granularity: GranularityRange}}, nil
	}
}

func dayBuckets(start, end v1.Date) []DateBucket {
	buckets := make([]DateBucket, 0, start.DaysUntil(end)+1)
	for d := start; !d.After(end.Time); d = d.AddDays(1) {
		buckets = append(buckets, DateBucket{Start: d, End: d, Granularity: GranularityDay})
	}
	return buckets
}

func weekBuckets(start, end v1.Date) ([]DateBucket, error) {
	// Weeks run Sunday through Saturday.
	for start.Weekday() != time.Sunday {
		start = start.AddDays(1)
	}
	for end.Weekday() != time.Saturday {
		end = end.AddDays(-1)
	}
	if start.After(end.Time) {
		return nil, fmt.Errorf("%w: range too short for WEEK granularity", ErrInvalidRange)
	}

	var buckets []DateBucket
	for d := start; !d.After(end.Time); d = d.AddDays(7) {
		buckets = append(buckets, DateBucket{Start: d, End: d.AddDays(6), Granularity: GranularityWeek})
	}
	return buckets, nil
}

func monthBuckets(start, end v1.Date) ([]DateBucket, error) {
	if start.Day() != 1 {
		start = firstOfNextMonth(start)
	}
	if !isMonthEnd(end) {
		end = lastOfPreviousMonth(end)
	}
	if start.After(end.Time) {
		return nil, fmt.Errorf("%w: range too short for MONTH granularity", ErrInvalidRange)
	}

	var buckets []DateBucket
	for d := start; !d.After(end.Time); d = firstOfNextMonth(d) {
		buckets = append(buckets, DateBucket{
			Start:       d,
			End:         firstOfNextMonth(d).AddDays(-1),
			Granularity: GranularityMonth,
		})
	}
	return buckets, nil
}

func firstOfNextMonth(d v1.Date) v1.Date {
	year, month, _ := d.Date()
	return v1.NewDate(year, month+1, 1)
}

func lastOfPreviousMonth(d v1.Date) v1.Date {
	year, month, _ := d.Date()
	return v1.NewDate(year, month, 1).AddDays(-1)
}

func isMonthEnd(d v1.Date) bool {
	return d.AddDays(1).Day() == 1
}
