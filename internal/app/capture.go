package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"ecg-monitor/internal/ecg"
)

// Capture ingests live samples for a fixed duration and writes the recorded
// waveform as CSV and/or a PNG chart. Lead-off sentinels and malformed lines
// are dropped exactly as in the live pipeline.
func (a *App) Capture(ctx context.Context, opts CaptureOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.Duration <= 0 {
		return errors.New("--duration must be positive")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	port, err := a.openTransport()
	if err != nil {
		return err
	}
	defer port.Close()

	a.Logger.Info().Dur("duration", opts.Duration).Str("port", port.Name()).Msg("capturing")

	samples, err := a.collectSamples(ctx, port, opts.Duration)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		a.Logger.Info().Msg("no samples captured")
		return nil
	}

	var filtered []float64
	if opts.Filtered {
		filtered = ecg.RemoveBaseline(samples, a.Config.Pipeline.BaselineFilterWidth)
	}

	samples, filtered = downsampleCapture(samples, filtered, opts.MaxPoints)
	a.Logger.Info().Int("exported", len(samples)).Msg("writing capture")

	rate := float64(a.Config.Pipeline.SampleRateHz)

	if opts.CSVPath != "" {
		if err := writeCaptureCSV(opts.CSVPath, samples, filtered, rate); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeCapturePNG(opts.PNGPath, samples, filtered, rate); err != nil {
			return err
		}
	}
	return nil
}

type byteSource interface {
	ReadAvailable() ([]byte, error)
}

func (a *App) collectSamples(ctx context.Context, source byteSource, duration time.Duration) ([]int, error) {
	var samples []int

	deadline := time.Now().Add(duration)
	ticker := time.NewTicker(a.Config.Monitor.TickInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		chunk, err := source.ReadAvailable()
		if err != nil {
			return nil, err
		}
		for _, ev := range ecg.ParseFrame(chunk) {
			if !ev.LeadOff {
				samples = append(samples, ev.Value)
			}
		}
	}
	return samples, nil
}

func downsampleCapture(samples []int, filtered []float64, max int) ([]int, []float64) {
	if max <= 0 || len(samples) <= max {
		return samples, filtered
	}
	if max == 1 {
		if filtered != nil {
			return samples[:1], filtered[:1]
		}
		return samples[:1], nil
	}

	outS := make([]int, 0, max)
	var outF []float64
	if filtered != nil {
		outF = make([]float64, 0, max)
	}

	step := float64(len(samples)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(samples) {
			idx = len(samples) - 1
		}
		outS = append(outS, samples[idx])
		if filtered != nil {
			outF = append(outF, filtered[idx])
		}
	}
	return outS, outF
}

func writeCaptureCSV(path string, samples []int, filtered []float64, rate float64) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"time_s", "amplitude"}
	if filtered != nil {
		header = append(header, "filtered")
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i, v := range samples {
		record := []string{
			strconv.FormatFloat(float64(i)/rate, 'f', 4, 64),
			strconv.Itoa(v),
		}
		if filtered != nil {
			record = append(record, strconv.FormatFloat(filtered[i], 'f', 3, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeCapturePNG(path string, samples []int, filtered []float64, rate float64) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]float64, len(samples))
	y := make([]float64, len(samples))
	for i, v := range samples {
		x[i] = float64(i) / rate
		y[i] = float64(v)
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "Amplitude",
			XValues: x,
			YValues: y,
		},
	}
	if filtered != nil {
		series = append(series, chart.ContinuousSeries{
			Name:    "Filtered",
			XValues: x,
			YValues: filtered,
		})
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			Name: "Time (s)",
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.1f")
			},
		},
		YAxis: chart.YAxis{
			Name: "Amplitude (ADC counts)",
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
