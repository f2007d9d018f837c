package conversation

import (
	"regexp"
	"strconv"
	"time"
)

// clockRe matches the accepted time-of-day input, e.g. "14:30".
var clockRe = regexp.MustCompile(`^\d{2}:\d{2}$`)

// applyClock adds the HH:MM input as an offset to the date picked on the
// calendar. Hour and minute values are not range-checked: "25:90" simply
// overflows into the following day, matching the historical behavior.
func applyClock(date time.Time, input string) (time.Time, bool) {
	if !clockRe.MatchString(input) {
		return time.Time{}, false
	}
	hours, _ := strconv.Atoi(input[:2])
	minutes, _ := strconv.Atoi(input[3:])
	return date.Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute), true
}
