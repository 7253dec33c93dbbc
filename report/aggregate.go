package report

import (
	"sort"

	"github.com/orochaa/access-logger/model"
)

// UnknownKey is the reserved bucket for records that carry no client
// metadata (or an empty value for a category). Legacy records logged before
// metadata collection existed end up here instead of failing the run.
const UnknownKey = "unknown"

// Entry is one key/count pair of a frequency table.
type Entry struct {
	Key   string
	Count int
}

// FreqTable counts occurrences of a categorical value (browser name, OS
// name, locale) while preserving the order in which keys were first seen,
// so the rendered summaries are stable across runs.
type FreqTable struct {
	keys   []string
	counts map[string]int
}

func NewFreqTable() *FreqTable {
	return &FreqTable{counts: make(map[string]int)}
}

// Inc increments the counter for key. An empty key counts as UnknownKey.
func (t *FreqTable) Inc(key string) {
	if key == "" {
		key = UnknownKey
	}
	if _, seen := t.counts[key]; !seen {
		t.keys = append(t.keys, key)
	}
	t.counts[key]++
}

// Count returns the current count for key.
func (t *FreqTable) Count(key string) int {
	return t.counts[key]
}

// Total returns the sum of all counts.
func (t *FreqTable) Total() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// Entries returns all key/count pairs in first-occurrence order.
func (t *FreqTable) Entries() []Entry {
	entries := make([]Entry, 0, len(t.keys))
	for _, key := range t.keys {
		entries = append(entries, Entry{Key: key, Count: t.counts[key]})
	}
	return entries
}

// AppReport is the per-application aggregation result. It is rebuilt from
// raw records on every report run and never persisted.
type AppReport struct {
	AppName  string
	Accesses []model.AccessRecord // newest first
	Browsers *FreqTable
	OS       *FreqTable
	Locales  *FreqTable
}

// Aggregate groups access records by application and builds the browser/OS/
// locale frequency tables for each group. It is a pure function: no I/O,
// deterministic output for any input ordering.
//
// Applications are ordered by access count descending; equal counts are
// broken by appName ascending (byte-wise compare). Within one application
// the accesses are ordered newest first.
func Aggregate(records []model.AccessRecord) []AppReport {
	byApp := make(map[string]*AppReport)
	order := make([]string, 0)

	for _, record := range records {
		app, ok := byApp[record.AppName]
		if !ok {
			app = &AppReport{
				AppName:  record.AppName,
				Browsers: NewFreqTable(),
				OS:       NewFreqTable(),
				Locales:  NewFreqTable(),
			}
			byApp[record.AppName] = app
			order = append(order, record.AppName)
		}

		app.Accesses = append(app.Accesses, record)
		if record.Meta != nil {
			app.Browsers.Inc(record.Meta.Browser.Name)
			app.OS.Inc(record.Meta.OS.Name)
			app.Locales.Inc(record.Meta.Locale)
		} else {
			app.Browsers.Inc(UnknownKey)
			app.OS.Inc(UnknownKey)
			app.Locales.Inc(UnknownKey)
		}
	}

	reports := make([]AppReport, 0, len(order))
	for _, appName := range order {
		app := byApp[appName]
		sort.SliceStable(app.Accesses, func(i, j int) bool {
			return app.Accesses[i].Timestamp.After(app.Accesses[j].Timestamp)
		})
		reports = append(reports, *app)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		if len(reports[i].Accesses) != len(reports[j].Accesses) {
			return len(reports[i].Accesses) > len(reports[j].Accesses)
		}
		return reports[i].AppName < reports[j].AppName
	})

	return reports
}
