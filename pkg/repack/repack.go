// Package repack wraps the external miniSEED trim/repack tool used to
// produce pruned derivatives. The tool reads a daily file plus its
// neighbors so records straddling midnight are cut correctly, and
// writes the result to a destination path.
package repack

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"

	"waveform-hq/archivist/pkg/sds"
)

// Options select the transformations applied while pruning.
type Options struct {
	// CutBoundaries trims records to the file's nominal day window.
	CutBoundaries bool

	// RemoveOverlap drops samples duplicated across records.
	RemoveOverlap bool

	// Repack rewrites records at RecordSize bytes.
	Repack bool

	// RecordSize is the output record length in bytes. Used only when
	// Repack is set.
	RecordSize int
}

// Tool runs the external binary.
type Tool struct {
	binary string
	logger *slog.Logger
}

// New creates a Tool for the given binary path.
func New(binary string, logger *slog.Logger) *Tool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tool{binary: binary, logger: logger.With("component", "repack")}
}

// Args builds the tool's argument list for pruning file into dest.
// Input files come last: the file itself plus any neighbors present on
// disk, so midnight-straddling records have their continuation available.
func Args(file *sds.File, dest string, opts Options) []string {
	var args []string

	if opts.CutBoundaries {
		args = append(args,
			"-ts", dayBoundary(file, 0),
			"-te", dayBoundary(file, 1),
		)
	}
	if opts.RemoveOverlap {
		args = append(args, "-Ps")
	}
	if opts.Repack {
		args = append(args, "-R", strconv.Itoa(opts.RecordSize))
	}

	args = append(args, "-o", dest)
	for _, input := range file.Neighbors() {
		args = append(args, input.Path())
	}
	return args
}

// dayBoundary formats the start of the file's day, offset by days, in
// the tool's year,day,hour,minute,second notation.
func dayBoundary(file *sds.File, days int) string {
	t := file.DataStart().AddDate(0, 0, days)
	return fmt.Sprintf("%d,%d,%d,%d,%d", t.Year(), t.YearDay(), 0, 0, 0)
}

// Prune runs the tool on file, writing the derivative to dest. A
// non-zero exit surfaces as an error carrying the tool's stderr.
func (t *Tool) Prune(ctx context.Context, file *sds.File, dest string, opts Options) error {
	args := Args(file, dest, opts)

	t.logger.Debug("running repack tool", "binary", t.binary, "args", args)

	cmd := exec.CommandContext(ctx, t.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("repack %s: %w", file.Filename(), ctx.Err())
		}
		return fmt.Errorf("repack %s: %w: %s", file.Filename(), err, stderr.String())
	}
	return nil
}
