package ecg

import "time"

// Config captures the static pipeline parameters at startup. Every derived
// constant (buffer capacity, recompute gate) comes from here.
type Config struct {
	SampleRateHz         int
	DisplayWindowSeconds int
	BaselineFilterWidth  int
	MinHeartRate         int
	MaxHeartRate         int
	HistoryLength        int
	RecomputeInterval    time.Duration
}

// DefaultConfig mirrors the sampler hardware: 250 Hz, 6 s display window.
func DefaultConfig() Config {
	return Config{
		SampleRateHz:         250,
		DisplayWindowSeconds: 6,
		BaselineFilterWidth:  25,
		MinHeartRate:         40,
		MaxHeartRate:         200,
		HistoryLength:        5,
		RecomputeInterval:    time.Second,
	}
}

// BufferCapacity derives the waveform window length in samples.
func (c Config) BufferCapacity() int {
	return c.SampleRateHz * c.DisplayWindowSeconds
}

// Quality classifies the signal for the most recent ingestion batch.
type Quality int

const (
	// QualityGood means no lead-off sentinel appeared in the latest batch.
	QualityGood Quality = iota
	// QualityLeadOff means an electrode lost contact during the latest batch.
	QualityLeadOff
)

func (q Quality) String() string {
	if q == QualityLeadOff {
		return "lead_off"
	}
	return "good"
}

// Pipeline owns the rolling buffer and derived state, and advances once per
// ingestion tick. It is single-writer by construction: callers invoke Ingest
// from one goroutine and read the derived state between ticks. No method
// blocks.
type Pipeline struct {
	cfg       Config
	buffer    *RollingBuffer
	estimator *Estimator

	quality  Quality
	bpm      int
	bpmValid bool
	lastCalc time.Time
}

// NewPipeline wires the stages from configuration.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		buffer:    NewRollingBuffer(cfg.BufferCapacity()),
		estimator: NewEstimator(cfg),
	}
}

// Reset returns all derived state to its initial empty condition. Invoked on
// (re)connect; now seeds the recompute throttle so the first estimate waits a
// full interval for data.
func (p *Pipeline) Reset(now time.Time) {
	p.buffer.Clear()
	p.estimator.Reset()
	p.quality = QualityGood
	p.bpm = 0
	p.bpmValid = false
	p.lastCalc = now
}

// Ingest runs one tick: parse the chunk, push readings, reclassify signal
// quality from this batch alone, and, at most once per recompute interval,
// re-derive the heart rate when the signal is good and at least one second of
// samples is buffered. Returns how many readings were accepted.
//
// Signal quality is recomputed fresh every tick; a lead-off in the batch gates
// the whole estimation stage for this tick but leaves history and the
// previously reported rate alone.
func (p *Pipeline) Ingest(chunk []byte, now time.Time) int {
	events := ParseFrame(chunk)

	accepted := 0
	leadOff := false
	for _, ev := range events {
		if ev.LeadOff {
			leadOff = true
			continue
		}
		p.buffer.Push(ev.Value)
		accepted++
	}

	if leadOff {
		p.quality = QualityLeadOff
	} else {
		p.quality = QualityGood
	}

	if now.Sub(p.lastCalc) >= p.cfg.RecomputeInterval {
		if p.quality == QualityGood && p.buffer.Len() >= p.cfg.SampleRateHz {
			p.recompute()
		}
		p.lastCalc = now
	}

	return accepted
}

func (p *Pipeline) recompute() {
	filtered := RemoveBaseline(p.buffer.Snapshot(), p.cfg.BaselineFilterWidth)
	peaks := DetectPeaks(filtered)
	p.bpm, p.bpmValid = p.estimator.Update(peaks)
}

// Snapshot returns the current waveform, oldest sample first. Time values for
// display derive as index divided by the sample rate.
func (p *Pipeline) Snapshot() []int { return p.buffer.Snapshot() }

// BufferLen reports how many samples are currently buffered.
func (p *Pipeline) BufferLen() int { return p.buffer.Len() }

// Quality reports the signal classification of the latest tick.
func (p *Pipeline) Quality() Quality { return p.quality }

// HeartRate reports the smoothed BPM; ok is false while the rate is
// unavailable.
func (p *Pipeline) HeartRate() (int, bool) { return p.bpm, p.bpmValid }

// Config returns the immutable pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }
