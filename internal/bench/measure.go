// Package bench runs the fixed lesson workloads repeatedly and reports their
// runtime and a serialization-based memory proxy.
//
// The memory figure is the size in KiB of the JSON encoding of a run's result.
// It is a deterministic trend signal, not a measurement of process memory.
package bench

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/takak2166/curriculum-tools/internal/logger"
)

// ErrInvalidRepeats is returned for a repeat count below one
var ErrInvalidRepeats = errors.New("repeats must be at least 1")

// Clock returns the current time. The default, time.Now, carries a monotonic reading.
type Clock func() time.Time

// Result aggregates the runs of one scenario
type Result struct {
	Name                string         `json:"name"`
	MeanRuntimeSeconds  float64        `json:"mean_runtime_seconds"`
	StdevRuntimeSeconds float64        `json:"stdev_runtime_seconds"`
	MaxRuntimeSeconds   float64        `json:"max_runtime_seconds"`
	MeanPeakMemoryKiB   float64        `json:"mean_peak_memory_kib"`
	StdevPeakMemoryKiB  float64        `json:"stdev_peak_memory_kib"`
	MaxPeakMemoryKiB    float64        `json:"max_peak_memory_kib"`
	SampleMetadata      map[string]any `json:"sample_metadata"`
}

// Harness runs scenarios against the datasets in DataDir
type Harness struct {
	DataDir string
	Repeats int
	Clock   Clock
}

// Run measures every scenario in order. A failing scenario, including a
// missing dataset, aborts the run.
func (h *Harness) Run(scenarios []Scenario) (*Report, error) {
	if h.Repeats < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidRepeats, h.Repeats)
	}
	clock := h.Clock
	if clock == nil {
		clock = time.Now
	}

	report := &Report{Benchmarks: make([]Result, 0, len(scenarios)), Repeats: h.Repeats}
	for _, s := range scenarios {
		res, err := h.measure(s, clock)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
		}
		report.Benchmarks = append(report.Benchmarks, res)
	}
	return report, nil
}

func (h *Harness) measure(s Scenario, clock Clock) (Result, error) {
	path := filepath.Join(h.DataDir, s.Dataset)
	runtimes := make([]float64, 0, h.Repeats)
	proxies := make([]float64, 0, h.Repeats)
	metadata := make(map[string]any)

	for i := 0; i < h.Repeats; i++ {
		start := clock()
		out, err := s.Run(path)
		elapsed := clock().Sub(start).Seconds()
		if err != nil {
			return Result{}, err
		}

		encoded, err := json.Marshal(out.Result)
		if err != nil {
			return Result{}, fmt.Errorf("failed to serialize result: %w", err)
		}
		runtimes = append(runtimes, elapsed)
		proxies = append(proxies, float64(len(encoded))/1024)
		for k, v := range out.Metadata {
			metadata[k] = v
		}
		logger.Debug("Benchmark run finished", map[string]interface{}{
			"scenario": s.Name,
			"run":      i + 1,
			"seconds":  elapsed,
		})
	}

	return Result{
		Name:                s.Name,
		MeanRuntimeSeconds:  mean(runtimes),
		StdevRuntimeSeconds: stdev(runtimes),
		MaxRuntimeSeconds:   maxOf(runtimes),
		MeanPeakMemoryKiB:   mean(proxies),
		StdevPeakMemoryKiB:  stdev(proxies),
		MaxPeakMemoryKiB:    maxOf(proxies),
		SampleMetadata:      metadata,
	}, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the population standard deviation
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sq := 0.0
	for _, x := range xs {
		sq += (x - m) * (x - m)
	}
	return math.Sqrt(sq / float64(len(xs)))
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	out := xs[0]
	for _, x := range xs[1:] {
		if x > out {
			out = x
		}
	}
	return out
}
