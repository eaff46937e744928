package sqltype

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// microDigits is the width the fractional second is padded to.
const microDigits = 6

// parseTime parses the relay's fixed-delimiter date/time text. All results
// are UTC; a bare time of day is placed on January 1 of year 0.
func parseTime(s, tag string) (time.Time, error) {
	switch tag {
	case "date":
		parts := strings.Split(s, "-")
		if len(parts) != 3 {
			return time.Time{}, fmt.Errorf("invalid date %q", s)
		}
		n, err := atoiAll(parts, s)
		if err != nil {
			return time.Time{}, err
		}
		return civil(s, n[0], n[1], n[2], 0, 0, 0, 0)
	case "time":
		parts, err := pad(split(s, ":."), 4, s)
		if err != nil {
			return time.Time{}, err
		}
		n, err := atoiAll(parts[:3], s)
		if err != nil {
			return time.Time{}, err
		}
		micro, err := micros(parts[3], s)
		if err != nil {
			return time.Time{}, err
		}
		return civil(s, 0, 1, 1, n[0], n[1], n[2], micro)
	default:
		parts, err := pad(split(s, "- :."), 7, s)
		if err != nil {
			return time.Time{}, err
		}
		n, err := atoiAll(parts[:6], s)
		if err != nil {
			return time.Time{}, err
		}
		micro, err := micros(parts[6], s)
		if err != nil {
			return time.Time{}, err
		}
		return civil(s, n[0], n[1], n[2], n[3], n[4], n[5], micro)
	}
}

// split cuts s at every rune in seps, keeping empty parts so that doubled
// separators fail to parse.
func split(s, seps string) []string {
	var parts []string
	start := 0
	for i, r := range s {
		if strings.ContainsRune(seps, r) {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// pad appends "0" parts up to n. More than n parts is an error.
func pad(parts []string, n int, src string) ([]string, error) {
	if len(parts) == 0 || len(parts) > n {
		return nil, fmt.Errorf("invalid time value %q", src)
	}
	for len(parts) < n {
		parts = append(parts, "0")
	}
	return parts, nil
}

func atoiAll(parts []string, src string) ([]int, error) {
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid component %q in %q", p, src)
		}
		out[i] = v
	}
	return out, nil
}

// micros right-pads the fraction digits to six places and truncates any
// precision beyond a microsecond.
func micros(frac, src string) (int, error) {
	if frac == "" {
		return 0, fmt.Errorf("empty fraction in %q", src)
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid fraction %q in %q", frac, src)
		}
	}
	if len(frac) > microDigits {
		frac = frac[:microDigits]
	}
	frac += strings.Repeat("0", microDigits-len(frac))
	return strconv.Atoi(frac)
}

// civil builds the time after checking every component is in range, since
// time.Date would silently normalize 2020-13-40 into 2021.
func civil(src string, year, month, day, hour, min, sec, micro int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, hour, min, sec, micro*int(time.Microsecond), time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != min || t.Second() != sec {
		return time.Time{}, fmt.Errorf("time value %q out of range", src)
	}
	return t, nil
}
