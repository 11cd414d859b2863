package sds

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Collector discovers files in an SDS archive. It walks the archive once at
// construction and answers selection queries against the discovered set.
type Collector struct {
	root   string
	logger *slog.Logger
	files  []*File
}

// NewCollector walks the archive rooted at root and returns a collector
// over every parseable SDS file found. Entries that do not parse as SDS
// filenames are skipped with a debug log.
func NewCollector(root string, logger *slog.Logger) (*Collector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "sds.collector")

	c := &Collector{root: root, logger: logger}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		file, perr := ParseFilename(root, d.Name())
		if perr != nil {
			logger.Debug("skipping non-SDS entry", "path", p)
			return nil
		}
		c.files = append(c.files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk archive %q: %w", root, err)
	}

	logger.Debug("archive walk complete", "files", len(c.files))
	return c, nil
}

// All returns every discovered file.
func (c *Collector) All() []*File {
	return c.files
}

// FromWildcards selects files whose filename matches the 7-field wildcard
// expression (e.g. "NL.*.*.BHZ.D.2023.*"). The expression must have exactly
// seven dot-separated fields; each field matches its counterpart in the
// filename independently, so a wildcard never spans a field boundary.
func (c *Collector) FromWildcards(pattern string) ([]*File, error) {
	fields := strings.Split(pattern, ".")
	if len(fields) != 7 {
		return nil, fmt.Errorf("invalid selection pattern %q: expected 7 dot-separated fields", pattern)
	}
	// Reject malformed patterns up front instead of per file.
	for _, field := range fields {
		if _, err := path.Match(field, "X"); err != nil {
			return nil, fmt.Errorf("invalid selection pattern %q: %w", pattern, err)
		}
	}

	var matched []*File
	for _, file := range c.files {
		if matchFields(fields, strings.Split(file.Filename(), ".")) {
			matched = append(matched, file)
		}
	}

	c.logger.Debug("wildcard selection", "pattern", pattern, "matched", len(matched))
	return matched, nil
}

// matchFields matches a split pattern against a split filename field by
// field.
func matchFields(pattern, fields []string) bool {
	if len(fields) != len(pattern) {
		return false
	}
	for i := range pattern {
		if ok, _ := path.Match(pattern[i], fields[i]); !ok {
			return false
		}
	}
	return true
}

// FromDate selects files whose nominal data date equals the given date.
func (c *Collector) FromDate(date time.Time) []*File {
	y, m, d := date.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var matched []*File
	for _, file := range c.files {
		if file.Date.Equal(day) {
			matched = append(matched, file)
		}
	}
	return matched
}

// FromModificationDate selects files whose filesystem modification time
// falls on the given date. Files that vanished since the walk are skipped.
func (c *Collector) FromModificationDate(date time.Time) []*File {
	y, m, d := date.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var matched []*File
	for _, file := range c.files {
		modified, err := file.Modified()
		if err != nil {
			continue
		}
		modified = modified.UTC()
		if !modified.Before(start) && modified.Before(end) {
			matched = append(matched, file)
		}
	}
	return matched
}

// FromPastDays selects files whose nominal data date lies within the past
// N days, excluding today.
func (c *Collector) FromPastDays(days int) []*File {
	var matched []*File
	now := time.Now().UTC()
	for day := 1; day <= days; day++ {
		matched = append(matched, c.FromDate(now.AddDate(0, 0, -day))...)
	}
	return matched
}
