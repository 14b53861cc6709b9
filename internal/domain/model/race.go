// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// raceNamespace seeds deterministic race IDs.
var raceNamespace = uuid.MustParse("6f1c2a8e-5d7b-4c1e-9a3f-2b8d4e6f0a15") //nolint:gochecknoglobals // fixed namespace

// Race is one logged race: when and where it ran and the placement of every
// roster player that took part. Players who did not race are absent.
// A Race is immutable once built with NewRace.
type Race struct {
	ID   uuid.UUID // deterministic, derived from the fingerprint
	Date string    // date as logged, e.g. "2024-12-01"
	Time string    // time of day as logged, e.g. "21:14:03"
	Map  string    // map name

	placements map[string]int
}

// NewRace builds a Race, copying placements so later edits to the caller's
// map cannot change it.
func NewRace(date, timeOfDay, mapName string, placements map[string]int) Race {
	cp := make(map[string]int, len(placements))
	for name, place := range placements {
		cp[name] = place
	}
	r := Race{Date: date, Time: timeOfDay, Map: mapName, placements: cp}
	r.ID = uuid.NewSHA1(raceNamespace, []byte(r.Fingerprint()))
	return r
}

// Len returns the number of participants.
func (r Race) Len() int { return len(r.placements) }

// Placement returns the placement of name and whether name took part.
func (r Race) Placement(name string) (int, bool) {
	p, ok := r.placements[name]
	return p, ok
}

// Placements returns a copy of the participant -> placement map.
func (r Race) Placements() map[string]int {
	cp := make(map[string]int, len(r.placements))
	for name, place := range r.placements {
		cp[name] = place
	}
	return cp
}

// Participants returns participant names ordered by placement, then name.
func (r Race) Participants() []string {
	names := make([]string, 0, len(r.placements))
	for name := range r.placements {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := r.placements[names[i]], r.placements[names[j]]
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
	return names
}

// Fingerprint identifies the race record: date|time|map|name=place,...
// with participants in name order.
func (r Race) Fingerprint() string {
	names := make([]string, 0, len(r.placements))
	for name := range r.placements {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(r.Date)
	b.WriteByte('|')
	b.WriteString(r.Time)
	b.WriteByte('|')
	b.WriteString(r.Map)
	b.WriteByte('|')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(r.placements[name]))
	}
	return b.String()
}
