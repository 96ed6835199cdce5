package todo

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// GroupByDate partitions todos by exact date string, keeping each group's
// insertion-relative order.
func GroupByDate(todos []Todo) map[string][]Todo {
	groups := make(map[string][]Todo)
	for _, t := range todos {
		groups[t.Date] = append(groups[t.Date], t)
	}
	return groups
}

// SortDates orders date strings by calendar value, ascending. Dates that do
// not parse sort after well-formed ones, by raw string so the order stays
// stable.
func SortDates(dates []string) []string {
	out := make([]string, len(dates))
	copy(out, dates)
	sort.SliceStable(out, func(i, j int) bool {
		di, erri := time.Parse(DateLayout, out[i])
		dj, errj := time.Parse(DateLayout, out[j])
		if erri != nil || errj != nil {
			if erri == nil {
				return true
			}
			if errj == nil {
				return false
			}
			return out[i] < out[j]
		}
		return di.Before(dj)
	})
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsOverdue reports whether date falls before the start of now's calendar
// day. Unparseable dates are never overdue.
func IsOverdue(date string, now time.Time) bool {
	d, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return false
	}
	return d.Before(startOfDay(now))
}

// IsToday reports whether date is now's calendar day.
func IsToday(date string, now time.Time) bool {
	return date == now.Format(DateLayout)
}

// IsFuture reports whether date falls after now's calendar day.
func IsFuture(date string, now time.Time) bool {
	d, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return false
	}
	return d.After(startOfDay(now))
}

// FormatForDisplay renders a due date as people say it: Today, Tomorrow,
// Yesterday, a weekday name up to a week out, "Last <Weekday>" up to a week
// back, and "2 Jan 2006" beyond that. Dates that do not parse come back
// unchanged.
func FormatForDisplay(date string, now time.Time) string {
	d, err := time.ParseInLocation(DateLayout, date, now.Location())
	if err != nil {
		return date
	}
	today := startOfDay(now)
	// Round the day delta so a DST-shortened or -stretched day still counts
	// as one day.
	days := int(math.Round(d.Sub(today).Hours() / 24))

	switch days {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	case -1:
		return "Yesterday"
	}
	if days > 0 && days <= 7 {
		return d.Format("Monday")
	}
	if days < 0 && days >= -7 {
		return "Last " + d.Format("Monday")
	}
	return d.Format("2 Jan 2006")
}

// Filter keeps todos whose title or description contains query,
// case-insensitively. A blank query keeps everything.
func Filter(todos []Todo, query string) []Todo {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return todos
	}
	out := make([]Todo, 0, len(todos))
	for _, t := range todos {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}

// Segment is one run of text, matched or not. The segments for a string
// concatenate back to the input text with its casing intact.
type Segment struct {
	Text  string
	Match bool
}

// Highlight splits text into alternating plain and matched segments around
// case-insensitive occurrences of query. An empty or unmatched query yields
// the whole text as a single plain segment.
//
// Matching is rune-wise: lowercasing can change a rune's byte length
// (U+212A lowers to "k", U+023A to a longer form), so every offset here
// indexes text itself, never a lowered copy.
func Highlight(text, query string) []Segment {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Segment{{Text: text}}
	}

	var segs []Segment
	last := 0
	for i := 0; i < len(text); {
		end, ok := matchAt(text, i, q)
		if !ok {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			continue
		}
		if i > last {
			segs = append(segs, Segment{Text: text[last:i]})
		}
		if n := len(segs); n > 0 && segs[n-1].Match {
			segs[n-1].Text += text[i:end]
		} else {
			segs = append(segs, Segment{Text: text[i:end], Match: true})
		}
		last = end
		i = end
	}
	if segs == nil {
		return []Segment{{Text: text}}
	}
	if last < len(text) {
		segs = append(segs, Segment{Text: text[last:]})
	}
	return segs
}

// matchAt reports whether text, lowered rune by rune from byte offset
// start, begins with the already-lowered query, and where that span ends
// in text.
func matchAt(text string, start int, loweredQuery string) (end int, ok bool) {
	i, j := start, 0
	for j < len(loweredQuery) {
		if i >= len(text) {
			return 0, false
		}
		tr, tsize := utf8.DecodeRuneInString(text[i:])
		qr, qsize := utf8.DecodeRuneInString(loweredQuery[j:])
		if unicode.ToLower(tr) != qr {
			return 0, false
		}
		i += tsize
		j += qsize
	}
	return i, true
}
