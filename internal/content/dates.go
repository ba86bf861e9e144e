package content

import (
	"regexp"
	"strconv"
	"strings"
)

// DateRangeSeparator joins the two ends of a formatted date range.
const DateRangeSeparator = " – "

var yearMonthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

var monthAbbrevs = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// FormatDateRange renders a start/end pair for display, e.g. "Jan 2023 – Present".
func FormatDateRange(start, end string) string {
	return formatDate(start) + DateRangeSeparator + formatDate(end)
}

// formatDate renders "present" in any case as "Present" and YYYY-MM as "Mon YYYY".
// Anything else, including a month outside 01-12, is returned unchanged.
func formatDate(date string) string {
	if strings.EqualFold(date, "present") {
		return "Present"
	}

	if yearMonthPattern.MatchString(date) {
		month, err := strconv.Atoi(date[5:])
		if err == nil && month >= 1 && month <= 12 {
			return monthAbbrevs[month-1] + " " + date[:4]
		}
	}

	return date
}
