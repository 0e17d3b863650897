package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/worklens/worklens/internal/remote"
)

// Well-known field reference names.
const (
	FieldID    = "System.Id"
	FieldTitle = "System.Title"
)

// placeholder is returned for field lookups that have no value.
const placeholder = "-"

// Record is one downloaded work item: a field bag plus optional history
// entries. Records are immutable after construction, which is what lets the
// search scan read them concurrently without locks. A record belongs to the
// snapshot that created it and dies with it.
type Record struct {
	id      int
	fields  map[string]string
	history []string

	// searchLower holds every field value and history entry lowercased,
	// computed once here instead of on every keystroke during a scan.
	searchLower []string
}

// NewRecord builds a record from a fetched work item. history may be nil
// when history download was not requested.
func NewRecord(item remote.WorkItem, history []string) *Record {
	fields := make(map[string]string, len(item.Fields)+1)
	for k, v := range item.Fields {
		fields[k] = v
	}
	if _, ok := fields[FieldID]; !ok {
		fields[FieldID] = strconv.Itoa(item.ID)
	}

	lower := make([]string, 0, len(fields)+len(history))
	for _, v := range fields {
		lower = append(lower, strings.ToLower(v))
	}
	for _, h := range history {
		lower = append(lower, strings.ToLower(h))
	}

	return &Record{
		id:          item.ID,
		fields:      fields,
		history:     history,
		searchLower: lower,
	}
}

// ID returns the work item id.
func (r *Record) ID() int {
	return r.id
}

// Field returns the value for a field reference name, or "-" when the
// record has no such field. Missing fields are expected, not an error.
func (r *Record) Field(name string) string {
	if v, ok := r.fields[name]; ok {
		return v
	}
	return placeholder
}

// History returns the history entries, oldest first, or nil when history
// was not downloaded.
func (r *Record) History() []string {
	return r.history
}

// MatchesQuery reports whether the record satisfies q. Field values and
// history entries are searched; field names are not.
func (r *Record) MatchesQuery(q Query) bool {
	if q.IsEmpty() {
		return true
	}
	return q.matchesLower(r.searchLower)
}

// String renders the "{id} - {title}" summary.
func (r *Record) String() string {
	title := "[No Title]"
	if v, ok := r.fields[FieldTitle]; ok {
		title = v
	}
	return fmt.Sprintf("%s - %s", r.Field(FieldID), title)
}
