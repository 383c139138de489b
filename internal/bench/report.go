package bench

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/takak2166/curriculum-tools/internal/console"
	"github.com/takak2166/curriculum-tools/internal/fsutil"
)

// Report is the JSON document written by the benchmark command
type Report struct {
	Benchmarks []Result `json:"benchmarks"`
	Repeats    int      `json:"repeats"`
}

// WriteReport writes r as indented JSON to path
func WriteReport(path string, r *Report) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

var summaryColumns = []struct {
	title string
	width int
}{
	{"Scenario", 22},
	{"Mean s", 10},
	{"Stdev s", 10},
	{"Max s", 10},
	{"Mean KiB", 10},
	{"Max KiB", 10},
}

// PrintSummary writes a fixed-width table of the results to w
func PrintSummary(w io.Writer, r *Report) {
	width := 0
	var header string
	for i, c := range summaryColumns {
		if i == 0 {
			header += console.PadRight(c.title, c.width)
		} else {
			header += console.PadLeft(c.title, c.width)
		}
		width += c.width
	}

	fmt.Fprintf(w, "Benchmarks (%d repeats)\n", r.Repeats)
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, console.Rule(width))
	for _, b := range r.Benchmarks {
		cells := []string{
			b.Name,
			seconds(b.MeanRuntimeSeconds),
			seconds(b.StdevRuntimeSeconds),
			seconds(b.MaxRuntimeSeconds),
			kib(b.MeanPeakMemoryKiB),
			kib(b.MaxPeakMemoryKiB),
		}
		var line string
		for i, c := range cells {
			if i == 0 {
				line += console.PadRight(c, summaryColumns[i].width)
			} else {
				line += console.PadLeft(c, summaryColumns[i].width)
			}
		}
		fmt.Fprintln(w, line)
	}
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func kib(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
