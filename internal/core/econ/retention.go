package econ

import (
	"fmt"
	"strconv"
	"strings"
)

// RetentionTag is the result-set expiry metadata: the shortest declared
// retention among the output fields the caller's selection touched.
type RetentionTag struct {
	// Duration is the declared ISO-8601 duration of the winning field.
	Duration string `json:"duration"`
	// Days is the same duration normalized to whole days.
	Days int `json:"days"`
}

// retentionByFieldPath declares how long each output field may be retained
// downstream, as ISO-8601 durations. Fields without an entry carry no
// retention directive.
var retentionByFieldPath = map[string]string{
	"sales":           "P24M",
	"fees":            "P24M",
	"fees.components": "P24M",
	"ads":             "P13M",
	"cost":            "P24M",
	"netProceeds":     "P13M",
}

// ResolveRetention computes the minimum retention across the touched field
// paths. Shortest retention wins. Returns nil when no touched field carries
// a retention directive, meaning the result set is untagged.
func ResolveRetention(touchedPaths []string) (*RetentionTag, error) {
	var tag *RetentionTag
	for _, path := range touchedPaths {
		iso, ok := retentionByFieldPath[path]
		if !ok {
			continue
		}
		days, err := ParseISODurationDays(iso)
		if err != nil {
			return nil, fmt.Errorf("retention for field %q: %w", path, err)
		}
		if tag == nil || days < tag.Days {
			tag = &RetentionTag{Duration: iso, Days: days}
		}
	}
	return tag, nil
}

// ParseISODurationDays parses a date-only ISO-8601 duration (PnYnMnWnD)
// into whole days. Years count as 365 days, months as 30, weeks as 7.
// Time-of-day components are not supported.
func ParseISODurationDays(s string) (int, error) {
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}
	if strings.ContainsRune(s, 'T') {
		return 0, fmt.Errorf("time components not supported in duration %q", s)
	}

	days := 0
	num := ""
	for _, r := range s[1:] {
		if r >= '0' && r <= '9' {
			num += string(r)
			continue
		}
		if num == "" {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", s, err)
		}
		num = ""

		switch r {
		case 'Y':
			days += n * 365
		case 'M':
			days += n * 30
		case 'W':
			days += n * 7
		case 'D':
			days += n
		default:
			return 0, fmt.Errorf("unsupported designator %q in duration %q", string(r), s)
		}
	}
	if num != "" {
		return 0, fmt.Errorf("dangling number in duration %q", s)
	}
	return days, nil
}
