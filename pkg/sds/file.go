package sds

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Stream identifies a single data stream: network, station, location and
// channel codes.
type Stream struct {
	Network  string
	Station  string
	Location string
	Channel  string
}

// ID returns the dotted stream identifier (NET.STA.LOC.CHA).
func (s Stream) ID() string {
	return strings.Join([]string{s.Network, s.Station, s.Location, s.Channel}, ".")
}

// File represents one archived daily unit: a single stream, a single
// nominal data date, a single quality class. A File is an address into the
// archive; the file it points to may or may not exist on disk.
type File struct {
	// Root is the archive root directory the file is resolved against.
	Root string

	// Stream is the stream identity.
	Stream Stream

	// Quality is the lifecycle stage marker encoded in the filename.
	Quality Quality

	// Date is the nominal data date (UTC midnight). This is the date the
	// data describes, independent of when the file was last written.
	Date time.Time
}

// NewFile constructs a File for the given stream, quality and nominal date.
// The date is truncated to UTC midnight.
func NewFile(root string, stream Stream, quality Quality, date time.Time) *File {
	y, m, d := date.UTC().Date()
	return &File{
		Root:    root,
		Stream:  stream,
		Quality: quality,
		Date:    time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}
}

// ParseFilename parses an SDS filename (NET.STA.LOC.CHA.Q.YYYY.DDD) into a
// File resolved against the given archive root.
func ParseFilename(root, name string) (*File, error) {
	parts := strings.Split(name, ".")
	if len(parts) != 7 {
		return nil, fmt.Errorf("invalid SDS filename %q: expected 7 dot-separated fields, got %d", name, len(parts))
	}

	quality := Quality(parts[4])
	if !quality.Valid() {
		return nil, fmt.Errorf("invalid SDS filename %q: unknown quality class %q", name, parts[4])
	}

	year, err := strconv.Atoi(parts[5])
	if err != nil || len(parts[5]) != 4 {
		return nil, fmt.Errorf("invalid SDS filename %q: bad year %q", name, parts[5])
	}
	day, err := strconv.Atoi(parts[6])
	if err != nil || len(parts[6]) != 3 {
		return nil, fmt.Errorf("invalid SDS filename %q: bad day-of-year %q", name, parts[6])
	}

	date := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1)
	if date.Year() != year {
		return nil, fmt.Errorf("invalid SDS filename %q: day %03d outside year %d", name, day, year)
	}

	return &File{
		Root: root,
		Stream: Stream{
			Network:  parts[0],
			Station:  parts[1],
			Location: parts[2],
			Channel:  parts[3],
		},
		Quality: quality,
		Date:    date,
	}, nil
}

// Year returns the nominal year in YYYY form.
func (f *File) Year() string {
	return fmt.Sprintf("%04d", f.Date.Year())
}

// DayOfYear returns the nominal day of year in DDD form (001-366).
func (f *File) DayOfYear() string {
	return fmt.Sprintf("%03d", f.Date.YearDay())
}

// Filename returns the SDS filename (NET.STA.LOC.CHA.Q.YYYY.DDD).
// It is also the item key used by the deletion ledger and remote catalogs.
func (f *File) Filename() string {
	return strings.Join([]string{
		f.Stream.Network,
		f.Stream.Station,
		f.Stream.Location,
		f.Stream.Channel,
		string(f.Quality),
		f.Year(),
		f.DayOfYear(),
	}, ".")
}

// SubDirectory returns the archive-relative directory (YYYY/NET/STA/CHA.Q).
func (f *File) SubDirectory() string {
	return filepath.Join(
		f.Year(),
		f.Stream.Network,
		f.Stream.Station,
		f.Stream.Channel+"."+string(f.Quality),
	)
}

// Path returns the resolved filesystem path of the file.
func (f *File) Path() string {
	return filepath.Join(f.Root, f.SubDirectory(), f.Filename())
}

// DataStart returns the inclusive start of the nominal data window.
func (f *File) DataStart() time.Time {
	return f.Date
}

// DataEnd returns the exclusive end of the nominal data window.
func (f *File) DataEnd() time.Time {
	return f.Date.AddDate(0, 0, 1)
}

// Previous returns the chronologically previous daily file of the same
// stream and quality, handling year rollover.
func (f *File) Previous() *File {
	return f.adjacent(-1)
}

// Next returns the chronologically next daily file of the same stream and
// quality, handling year rollover.
func (f *File) Next() *File {
	return f.adjacent(1)
}

func (f *File) adjacent(days int) *File {
	clone := *f
	clone.Date = f.Date.AddDate(0, 0, days)
	return &clone
}

// PrunedCounterpart returns the quality-controlled derivative address of a
// raw file: same stream, same date, quality Q. The counterpart of a pruned
// file is itself.
func (f *File) PrunedCounterpart() *File {
	if f.Quality.IsPruned() {
		return f
	}
	clone := *f
	clone.Quality = QualityPruned
	return &clone
}

// Exists reports whether the file is present on disk.
func (f *File) Exists() bool {
	info, err := os.Stat(f.Path())
	return err == nil && info.Mode().IsRegular()
}

// Modified returns the filesystem modification time, or an error when the
// file does not exist.
func (f *File) Modified() (time.Time, error) {
	info, err := os.Stat(f.Path())
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", f.Filename(), err)
	}
	return info.ModTime(), nil
}

// Size returns the file size in bytes.
func (f *File) Size() (int64, error) {
	info, err := os.Stat(f.Path())
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", f.Filename(), err)
	}
	return info.Size(), nil
}

// Checksum computes the SHA-256 checksum of the file contents, in the
// catalog exchange format "sha2:" + base64. The checksum is the join key
// every downstream catalog and replication check verifies against.
func (f *File) Checksum() (string, error) {
	fd, err := os.Open(f.Path())
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Filename(), err)
	}
	defer fd.Close()

	h := sha256.New()
	if _, err := io.Copy(h, fd); err != nil {
		return "", fmt.Errorf("checksum %s: %w", f.Filename(), err)
	}
	return "sha2:" + base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// Neighbors returns the files of the previous day, the file itself, and the
// next day, keeping only those present on disk. Boundary pruning feeds the
// whole set to the repack tool so records straddling midnight end up in the
// correct daily file.
func (f *File) Neighbors() []*File {
	var present []*File
	for _, candidate := range []*File{f.Previous(), f, f.Next()} {
		if candidate.Exists() {
			present = append(present, candidate)
		}
	}
	return present
}
