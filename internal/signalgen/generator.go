// Package signalgen synthesizes a plausible (not clinical) ECG waveform in the
// sampler's wire format, for simulation and tests when no hardware is attached.
package signalgen

import (
	"bytes"
	"math"
	"strconv"
)

const (
	adcMidline = 2048
	adcMax     = 4095
	// gain maps the normalized waveform onto the 12-bit ADC domain; the R peak
	// lands around 3250 counts.
	gain = 1200.0
)

// Generator produces samples at a fixed rate: baseline sway plus gaussian
// P, QRS and T deflections, with optional deterministic noise.
type Generator struct {
	sampleRate float64
	rateBPM    float64
	noise      float64
	phase      float64
}

// New builds a generator. Typical arguments: 250 Hz, 60-120 BPM, noise 0-0.05.
func New(sampleRateHz int, rateBPM, noise float64) *Generator {
	return &Generator{
		sampleRate: float64(sampleRateHz),
		rateBPM:    rateBPM,
		noise:      noise,
	}
}

// Next returns the next ADC sample and advances one sample period.
func (g *Generator) Next() int {
	cycleHz := g.rateBPM / 60.0
	g.phase += cycleHz / g.sampleRate
	if g.phase >= 1.0 {
		g.phase -= 1.0
	}

	t := g.phase

	baseline := 0.05 * math.Sin(2*math.Pi*0.33*t)

	p := 0.08 * gauss(t, 0.18, 0.03)
	q := -0.12 * gauss(t, 0.30, 0.01)
	r := 1.00 * gauss(t, 0.32, 0.008)
	s := -0.25 * gauss(t, 0.35, 0.012)
	tw := 0.25 * gauss(t, 0.60, 0.06)

	n := g.noise * (2*fract(math.Sin(12345.678*t)*9876.543) - 1)

	v := adcMidline + int(gain*(baseline+p+q+r+s+tw+n))
	if v < 0 {
		v = 0
	}
	if v > adcMax {
		v = adcMax
	}
	return v
}

// Frame renders the next n samples as newline-delimited wire lines.
func (g *Generator) Frame(n int) []byte {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.WriteString(strconv.Itoa(g.Next()))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// LeadOffFrame renders n lead-off sentinel lines, as the firmware emits while
// an electrode is disconnected.
func LeadOffFrame(n int) []byte {
	var buf bytes.Buffer
	for i := 0; i < n; i++ {
		buf.WriteString("-1\n")
	}
	return buf.Bytes()
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func fract(x float64) float64 { return x - math.Floor(x) }
