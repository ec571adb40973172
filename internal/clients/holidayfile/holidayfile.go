// Package holidayfile reads exchange holiday lists from a YAML file.
// It is the offline fallback behind the NSE feed.
package holidayfile

import (
	"context"
	"fmt"
	"os"

	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// File is the on-disk document
//
//	market: NSE
//	segment: CM
//	holidays:
//	  - trade_day: 22-Jan-2024
//	    week_day: Monday
//	    description: Special Holiday
type File struct {
	Market   string                   `yaml:"market"`
	Segment  string                   `yaml:"segment"`
	Holidays []calendar.HolidayRecord `yaml:"holidays"`
}

// Load parses a holiday file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse holiday file %s: %w", path, err)
	}
	if len(f.Holidays) == 0 {
		return nil, fmt.Errorf("holiday file %s lists no holidays", path)
	}

	return &f, nil
}

// Save writes a holiday file, used to snapshot the feed for offline use
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode holiday file: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write holiday file: %w", err)
	}
	return nil
}

// Source implements calendar.HolidaySource over a file.
// The file is re-read on every call so edits apply on the next refresh.
type Source struct {
	path string
	log  zerolog.Logger
}

// NewSource creates a file backed holiday source
func NewSource(path string, log zerolog.Logger) *Source {
	return &Source{
		path: path,
		log:  log.With().Str("client", "holidayfile").Logger(),
	}
}

// Holidays returns the records listed in the file
func (s *Source) Holidays(ctx context.Context) ([]calendar.HolidayRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := Load(s.path)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("path", s.path).
		Int("holidays", len(f.Holidays)).
		Msg("Loaded holiday file")

	return f.Holidays, nil
}
