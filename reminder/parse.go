package reminder

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	relativeRe = regexp.MustCompile(`(?i)\bin\s+(\d+)\s+(minute|minutes|min|mins|hour|hours|hr|hrs|day|days)\b`)
	clockRe    = regexp.MustCompile(`(?i)\b(?:at\s+)?([01]?\d|2[0-3]):([0-5]\d)\s*(am|pm)?\b`)
)

// namedSlots map colloquial day references to an offset in days and a fixed
// hour of that day.
var namedSlots = []struct {
	phrase string
	days   int
	hour   int
}{
	{"tomorrow morning", 1, 9},
	{"tomorrow afternoon", 1, 14},
	{"tomorrow evening", 1, 18},
	{"tomorrow", 1, 9},
	{"tonight", 0, 20},
	{"this morning", 0, 9},
	{"this afternoon", 0, 14},
	{"this evening", 0, 18},
}

// DetectTimeExpression scans text for the first recognizable time expression
// and resolves it relative to now. Supported forms, in precedence order:
// relative offsets ("in 30 minutes", "in 2 hours", "in 3 days"), named day
// slots ("tomorrow", "tonight", "this afternoon"), and clock times ("at
// 15:30", "9:00 am"), which roll forward to the next day when already past.
func DetectTimeExpression(text string, now time.Time) (time.Time, bool) {
	if m := relativeRe.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			switch strings.ToLower(m[2])[0] {
			case 'm':
				return now.Add(time.Duration(n) * time.Minute), true
			case 'h':
				return now.Add(time.Duration(n) * time.Hour), true
			case 'd':
				return now.AddDate(0, 0, n), true
			}
		}
	}

	lower := strings.ToLower(text)
	for _, slot := range namedSlots {
		if strings.Contains(lower, slot.phrase) {
			day := now.AddDate(0, 0, slot.days)
			due := time.Date(day.Year(), day.Month(), day.Day(), slot.hour, 0, 0, 0, now.Location())
			if !due.After(now) {
				due = due.AddDate(0, 0, 1)
			}
			return due, true
		}
	}

	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		switch strings.ToLower(m[3]) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		due := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !due.After(now) {
			due = due.AddDate(0, 0, 1) // already past today, roll forward
		}
		return due, true
	}

	return time.Time{}, false
}
