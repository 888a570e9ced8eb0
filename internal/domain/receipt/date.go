package receipt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// OutputLayout is the canonical calendar date form produced by Normalize
const OutputLayout = "2006-01-02"

// minYear rejects candidates where a long-year token swallowed a short year ("24" read as year 24)
const minYear = 1000

// twoDigitPivot maps two-digit years above it to 19xx and the rest to 20xx
const twoDigitPivot = 70

// datePatterns are tried in order; the first plausible match wins
var datePatterns = []string{
	"yyyy-MM-dd",
	"dd/MM/yyyy",
	"dd.MM.yyyy",
	"dd-MM-yyyy",
	"yyyy/MM/dd",
	"MM/dd/yyyy",
	"dd/MM/yy",
	"dd.MM.yy",
	"dd-MM-yy",
	"yy-MM-dd",
}

// weekdayPrefix strips "Monday, " style prefixes the free-form parser rejects
var weekdayPrefix = regexp.MustCompile(`(?i)^(mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?,?\s+`)

type datePattern struct {
	layout string
	re     *regexp.Regexp
}

var compiledPatterns = mustCompilePatterns(datePatterns)

// NormalizeDate is Normalize for optional values: nil stays nil
func NormalizeDate(raw *string) *string {
	if raw == nil {
		return nil
	}
	out := Normalize(*raw)
	return &out
}

// Normalize rewrites a receipt date into YYYY-MM-DD. When neither a pattern
// nor the free-form parser accepts it, the input is returned unchanged.
func Normalize(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return raw
	}

	for _, p := range compiledPatterns {
		if t, ok := p.parse(value); ok && t.Year() > minYear {
			return t.Format(OutputLayout)
		}
	}

	if t, ok := parseFreeForm(value); ok {
		return t.Format(OutputLayout)
	}

	return raw
}

func parseFreeForm(value string) (time.Time, bool) {
	for _, candidate := range []string{value, weekdayPrefix.ReplaceAllString(value, "")} {
		t, err := dateparse.ParseIn(candidate, time.UTC)
		if err == nil && t.Year() > minYear {
			return t, true
		}
	}
	return time.Time{}, false
}

func mustCompilePatterns(layouts []string) []datePattern {
	patterns := make([]datePattern, 0, len(layouts))
	for _, layout := range layouts {
		re, err := compilePattern(layout)
		if err != nil {
			panic(err)
		}
		patterns = append(patterns, datePattern{layout: layout, re: re})
	}
	return patterns
}

// compilePattern turns a token layout into an anchored regexp with named groups.
// dd and MM take one or two digits, yyyy one to four, yy exactly two.
func compilePattern(layout string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(layout); {
		switch {
		case strings.HasPrefix(layout[i:], "yyyy"):
			b.WriteString(`(?P<yyyy>\d{1,4})`)
			i += 4
		case strings.HasPrefix(layout[i:], "yy"):
			b.WriteString(`(?P<yy>\d{2})`)
			i += 2
		case strings.HasPrefix(layout[i:], "MM"):
			b.WriteString(`(?P<MM>\d{1,2})`)
			i += 2
		case strings.HasPrefix(layout[i:], "dd"):
			b.WriteString(`(?P<dd>\d{1,2})`)
			i += 2
		case strings.ContainsRune("/.-", rune(layout[i])):
			b.WriteString(regexp.QuoteMeta(layout[i : i+1]))
			i++
		default:
			return nil, fmt.Errorf("unsupported token in date layout %q at %d", layout, i)
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func (p datePattern) parse(value string) (time.Time, bool) {
	m := p.re.FindStringSubmatch(value)
	if m == nil {
		return time.Time{}, false
	}

	var year, month, day int
	for i, name := range p.re.SubexpNames() {
		if name == "" {
			continue
		}
		n, err := strconv.Atoi(m[i])
		if err != nil {
			return time.Time{}, false
		}
		switch name {
		case "yyyy":
			year = n
		case "yy":
			year = expandTwoDigitYear(n)
		case "MM":
			month = n
		case "dd":
			day = n
		}
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func expandTwoDigitYear(yy int) int {
	if yy > twoDigitPivot {
		return 1900 + yy
	}
	return 2000 + yy
}
