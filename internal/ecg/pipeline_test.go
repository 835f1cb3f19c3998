package ecg

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// beatChunk renders n samples as wire lines: a flat 2048 baseline with sharp
// 500-count spikes every spikeEvery samples, first spike at firstSpike.
func beatChunk(n, spikeEvery, firstSpike int) []byte {
	var b strings.Builder
	for i := 0; i < n; i++ {
		v := 2048
		if i >= firstSpike && (i-firstSpike)%spikeEvery == 0 {
			v = 2548
		}
		fmt.Fprintf(&b, "%d\n", v)
	}
	return []byte(b.String())
}

func TestPipelineComputesRate(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	start := time.Unix(100, 0)
	p.Reset(start)

	p.Ingest(beatChunk(1500, 250, 100), start.Add(1100*time.Millisecond))

	bpm, ok := p.HeartRate()
	if !ok {
		t.Fatal("rate should be available after one second of clean beats")
	}
	if bpm != 60 {
		t.Fatalf("bpm = %d, want 60", bpm)
	}
	if p.Quality() != QualityGood {
		t.Fatalf("quality = %v, want good", p.Quality())
	}
}

func TestPipelineRecomputeThrottle(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	start := time.Unix(100, 0)
	p.Reset(start)

	p.Ingest(beatChunk(1500, 250, 100), start.Add(500*time.Millisecond))
	if _, ok := p.HeartRate(); ok {
		t.Fatal("rate must not recompute before the interval elapses")
	}

	// Next tick crosses the one second boundary; no new data needed.
	p.Ingest(nil, start.Add(1200*time.Millisecond))
	if bpm, ok := p.HeartRate(); !ok || bpm != 60 {
		t.Fatalf("rate after throttle window = %d (ok=%v), want 60", bpm, ok)
	}
}

func TestPipelineLeadOffGatesEstimation(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	start := time.Unix(100, 0)
	p.Reset(start)

	chunk := append(beatChunk(1500, 250, 100), []byte("-1\n")...)
	p.Ingest(chunk, start.Add(2*time.Second))

	if p.Quality() != QualityLeadOff {
		t.Fatalf("quality = %v, want lead_off", p.Quality())
	}
	if _, ok := p.HeartRate(); ok {
		t.Fatal("lead-off batch must skip estimation even with a full buffer")
	}

	// A clean tick later recovers.
	p.Ingest(beatChunk(250, 250, 100), start.Add(4*time.Second))
	if p.Quality() != QualityGood {
		t.Fatalf("quality = %v, want good after clean batch", p.Quality())
	}
	if _, ok := p.HeartRate(); !ok {
		t.Fatal("rate should recover on the next clean interval")
	}
}

func TestPipelineLeadOffKeepsPreviousRate(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	start := time.Unix(100, 0)
	p.Reset(start)

	p.Ingest(beatChunk(1500, 250, 100), start.Add(1100*time.Millisecond))
	if bpm, ok := p.HeartRate(); !ok || bpm != 60 {
		t.Fatalf("precondition failed: bpm = %d (ok=%v)", bpm, ok)
	}

	p.Ingest([]byte("-1\n"), start.Add(3*time.Second))
	if bpm, ok := p.HeartRate(); !ok || bpm != 60 {
		t.Fatalf("lead-off tick must leave the reported rate untouched, got %d (ok=%v)", bpm, ok)
	}
}

func TestPipelineBufferEviction(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	start := time.Unix(100, 0)
	p.Reset(start)

	p.Ingest(beatChunk(2000, 250, 100), start.Add(time.Millisecond))

	if p.BufferLen() != p.Config().BufferCapacity() {
		t.Fatalf("buffer length %d, want capacity %d", p.BufferLen(), p.Config().BufferCapacity())
	}
}

func TestPipelineReset(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	start := time.Unix(100, 0)
	p.Reset(start)

	p.Ingest(beatChunk(1500, 250, 100), start.Add(1100*time.Millisecond))
	if _, ok := p.HeartRate(); !ok {
		t.Fatal("precondition failed: no rate computed")
	}

	p.Reset(start.Add(2 * time.Second))
	if _, ok := p.HeartRate(); ok {
		t.Fatal("reset must drop the reported rate")
	}
	if p.BufferLen() != 0 {
		t.Fatalf("reset left %d samples buffered", p.BufferLen())
	}
	if p.Quality() != QualityGood {
		t.Fatalf("reset quality = %v, want good", p.Quality())
	}
}

func TestPipelineStagesIdempotentOnSnapshot(t *testing.T) {
	p := NewPipeline(DefaultConfig())
	start := time.Unix(100, 0)
	p.Reset(start)
	p.Ingest(beatChunk(1500, 250, 100), start.Add(1100*time.Millisecond))

	snap := p.Snapshot()
	width := p.Config().BaselineFilterWidth

	first := DetectPeaks(RemoveBaseline(snap, width))
	second := DetectPeaks(RemoveBaseline(snap, width))
	if len(first) != len(second) {
		t.Fatalf("peak counts differ across identical runs: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("peak %d differs: %d vs %d", i, first[i], second[i])
		}
	}

	bpm1, ok1 := p.HeartRate()
	bpm2, ok2 := p.HeartRate()
	if bpm1 != bpm2 || ok1 != ok2 {
		t.Fatal("reading derived state must not change it")
	}
}
