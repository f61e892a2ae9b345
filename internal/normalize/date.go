package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

var (
	isoDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	isoDateTime = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ]`)
	dayMonthYr  = regexp.MustCompile(`^(\d{1,2})([/.\-])(\d{1,2})([/.\-])(\d{2}|\d{4})$`)
)

// Statement layouts that spell the month out, e.g. "05-Apr-2024".
var namedMonthLayouts = []string{
	"2-Jan-2006",
	"2 Jan 2006",
	"2/Jan/2006",
	"2-Jan-06",
	"2 Jan 06",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2, 2006",
}

// centurySplit: two-digit years below it land in the 2000s, the rest in the 1900s.
const centurySplit = 50

// NormalizeDate converts a statement date into YYYY-MM-DD.
// Slash, dash and dot separated triples are read day first. Anything it does
// not recognise, including impossible calendar dates, is returned unchanged.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return raw
	}
	if isoDate.MatchString(s) {
		return s
	}
	if m := isoDateTime.FindStringSubmatch(s); m != nil {
		return m[1]
	}

	if m := dayMonthYr.FindStringSubmatch(s); m != nil && m[2] == m[4] {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[3])
		year, _ := strconv.Atoi(m[5])
		if len(m[5]) == 2 {
			if year < centurySplit {
				year += 2000
			} else {
				year += 1900
			}
		}
		d := civil.Date{Year: year, Month: time.Month(month), Day: day}
		if d.IsValid() {
			return d.String()
		}
		return raw
	}

	for _, layout := range namedMonthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t).String()
		}
	}
	return raw
}

// IsCanonicalDate reports whether s is a valid YYYY-MM-DD calendar date.
func IsCanonicalDate(s string) bool {
	if !isoDate.MatchString(s) {
		return false
	}
	d, err := civil.ParseDate(s)
	return err == nil && d.IsValid()
}
