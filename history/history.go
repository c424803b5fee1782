// Package history persists resume positions per media source.
package history

import (
	"time"

	"github.com/auplay-cli/auplay/filesystem"
	"github.com/auplay-cli/auplay/where"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/metafates/gache"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// cacher is the disk-backed registry of entries keyed by source.
var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every saved entry keyed by source.
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// List returns saved entries, most recently updated first.
func List() ([]*Entry, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(saved))
	for _, entry := range saved {
		entries = append(entries, entry)
	}
	slices.SortFunc(entries, func(a, b *Entry) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return entries, nil
}

// Save records the position of source. The highest percentage ever seen is
// kept so that re-listening never makes a finished source look unfinished.
func Save(source string, positionMs, durationMs int64) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	entry := &Entry{
		Source:     source,
		PositionMs: max(positionMs, 0),
		DurationMs: durationMs,
		Percent:    percentOf(positionMs, durationMs),
		UpdatedAt:  time.Now(),
	}
	entry.MaxPercent = entry.Percent
	if existing, ok := saved[source]; ok {
		entry.MaxPercent = max(entry.MaxPercent, existing.MaxPercent)
	}

	saved[source] = entry
	return cacher.Set(saved)
}

// Lookup returns the entry for source, if any.
func Lookup(source string) (*Entry, bool, error) {
	saved, err := Get()
	if err != nil {
		return nil, false, err
	}
	entry, ok := saved[source]
	return entry, ok, nil
}

// Remove deletes the entry for source.
func Remove(source string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, source)
	return cacher.Set(saved)
}

// Search returns the entries whose source fuzzily matches query, closest first.
func Search(query string) ([]*Entry, error) {
	entries, err := List()
	if err != nil {
		return nil, err
	}

	if query == "" {
		return entries, nil
	}

	type ranked struct {
		entry    *Entry
		distance int
	}

	matches := lo.FilterMap(entries, func(e *Entry, _ int) (ranked, bool) {
		distance := fuzzy.RankMatchFold(query, e.Source)
		return ranked{entry: e, distance: distance}, distance >= 0
	})

	slices.SortStableFunc(matches, func(a, b ranked) int {
		return a.distance - b.distance
	})

	return lo.Map(matches, func(r ranked, _ int) *Entry {
		return r.entry
	}), nil
}
