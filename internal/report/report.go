// Package report renders the CLI driver's human-facing analysis report
// and diagnostic log lines. Diagnostics (one per analysis run, tagged
// with a run ID so concurrent/sequential runs against the same cache
// database can be told apart) go to charmbracelet/log on stderr; the
// report itself goes to stdout, with its heading colorized only when
// stdout is a terminal.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	strftime "github.com/ncruces/go-strftime"

	"github.com/misterdjules/soundbox/internal/clip"
)

// Reporter owns the run's diagnostic logger and its analysis ID.
type Reporter struct {
	RunID  string
	logger *log.Logger
	isTTY  bool
}

// New returns a Reporter writing diagnostics to w (normally os.Stderr),
// at debug or info level, tagged with a fresh per-run analysis ID.
// isTTYStdout should reflect whether the report's own destination
// (normally os.Stdout) is an interactive terminal; callers typically
// pass isatty.IsTerminal(os.Stdout.Fd()).
func New(w io.Writer, debug bool, isTTYStdout bool) *Reporter {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})

	runID := uuid.New().String()
	logger = logger.With("run", runID)

	return &Reporter{RunID: runID, logger: logger, isTTY: isTTYStdout}
}

// IsTerminalStdout reports whether fd (normally os.Stdout.Fd()) is a
// terminal, gating the report heading's colorization.
func IsTerminalStdout(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (r *Reporter) Debugf(msg string, args ...any) { r.logger.Debug(fmt.Sprintf(msg, args...)) }
func (r *Reporter) Infof(msg string, args ...any)  { r.logger.Info(fmt.Sprintf(msg, args...)) }
func (r *Reporter) Warnf(msg string, args ...any)  { r.logger.Warn(fmt.Sprintf(msg, args...)) }
func (r *Reporter) Errorf(msg string, args ...any) { r.logger.Error(fmt.Sprintf(msg, args...)) }

// PrintSummary writes a human analysis report for c to w: path,
// humanized duration, peak count, BPM (if available) and an "analyzed
// at" timestamp.
func (r *Reporter) PrintSummary(w io.Writer, path string, c *clip.Clip, analyzedAt time.Time) {
	stamp, err := strftime.Format("%Y-%m-%d %H:%M:%S", analyzedAt)
	if err != nil {
		stamp = analyzedAt.Format(time.RFC3339)
	}

	fmt.Fprintf(w, "%s\n", heading(path, r.isTTY))
	fmt.Fprintf(w, "  duration:    %s\n", humanize.FormatFloat("#,###.##", c.Duration())+"s")
	fmt.Fprintf(w, "  peaks found: %s\n", humanize.Comma(int64(len(c.Peaks))))

	if bpm, ok := c.BPM(); ok {
		fmt.Fprintf(w, "  bpm:         %s\n", humanize.FormatFloat("#,###.##", bpm))
	} else {
		fmt.Fprintf(w, "  bpm:         unavailable\n")
	}

	fmt.Fprintf(w, "  analyzed at: %s\n", stamp)
}

// PrintTable writes a per-step sample/beat time table, stepping through
// the clip's duration in stepSeconds increments.
func (r *Reporter) PrintTable(w io.Writer, c *clip.Clip, stepSeconds float64) {
	fmt.Fprintf(w, "%-12s %-12s\n", "sample time", "beat time")
	for t := 0.0; t < c.Duration(); t += stepSeconds {
		fmt.Fprintf(w, "%-12.3f %-12.3f\n", t, c.SampleToBeatTime(t))
	}
}

func heading(path string, colorize bool) string {
	if !colorize {
		return "analysis: " + path
	}
	const (
		bold  = "\x1b[1m"
		reset = "\x1b[0m"
	)
	return bold + "analysis: " + path + reset
}
