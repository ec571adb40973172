// Package reports builds session reports and delivers them to notification channels.
package reports

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies a report type
type Kind string

const (
	// KindSession is the end of day calendar and index report
	KindSession Kind = "session"
)

// Section is one titled table of a report
type Section struct {
	Heading string     `json:"heading" msgpack:"heading"`
	Columns []string   `json:"columns" msgpack:"columns"`
	Rows    [][]string `json:"rows" msgpack:"rows"`
}

// AddRow appends a row, padding or trimming it to the column count
func (s *Section) AddRow(cells ...string) {
	row := make([]string, len(s.Columns))
	copy(row, cells)
	s.Rows = append(s.Rows, row)
}

// Report is a rendered, channel independent report
type Report struct {
	ID          string    `json:"id" msgpack:"id"`
	Kind        Kind      `json:"kind" msgpack:"kind"`
	SessionDate string    `json:"session_date" msgpack:"session_date"`
	GeneratedAt time.Time `json:"generated_at" msgpack:"generated_at"`
	Title       string    `json:"title" msgpack:"title"`
	Sections    []Section `json:"sections" msgpack:"sections"`
}

// NewReport creates an empty report with a fresh ID
func NewReport(kind Kind, sessionDate, title string, generatedAt time.Time) *Report {
	return &Report{
		ID:          uuid.NewString(),
		Kind:        kind,
		SessionDate: sessionDate,
		GeneratedAt: generatedAt,
		Title:       title,
	}
}

// Section returns the section with the given heading
func (r *Report) Section(heading string) (*Section, bool) {
	for i := range r.Sections {
		if r.Sections[i].Heading == heading {
			return &r.Sections[i], true
		}
	}
	return nil, false
}
