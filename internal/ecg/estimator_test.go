package ecg

import "testing"

func testEstimatorConfig() Config {
	cfg := DefaultConfig()
	return cfg
}

func TestEstimatorOneSecondIntervals(t *testing.T) {
	est := NewEstimator(testEstimatorConfig())

	bpm, ok := est.Update([]int{0, 250, 500})
	if !ok {
		t.Fatal("1.0 s intervals at 250 Hz must report a rate")
	}
	if bpm != 60 {
		t.Fatalf("bpm = %d, want 60", bpm)
	}
}

func TestEstimatorTooFewPeaks(t *testing.T) {
	est := NewEstimator(testEstimatorConfig())

	if _, ok := est.Update(nil); ok {
		t.Fatal("no peaks must be unavailable")
	}
	if _, ok := est.Update([]int{100}); ok {
		t.Fatal("a single peak must be unavailable")
	}
	if est.HistoryLen() != 0 {
		t.Fatalf("history mutated on unavailable result: %d entries", est.HistoryLen())
	}
}

func TestEstimatorRejectsOutOfBounds(t *testing.T) {
	est := NewEstimator(testEstimatorConfig())

	// 750-sample interval at 250 Hz = 3.0 s per beat = 20 BPM.
	if _, ok := est.Update([]int{0, 750}); ok {
		t.Fatal("20 BPM is below the physiological floor")
	}
	// 60-sample interval = 0.24 s per beat = 250 BPM.
	if _, ok := est.Update([]int{0, 60}); ok {
		t.Fatal("250 BPM is above the physiological ceiling")
	}
	if est.HistoryLen() != 0 {
		t.Fatalf("rejected values must not reach history: %d entries", est.HistoryLen())
	}
}

func TestEstimatorSmoothsAcrossAcceptedValues(t *testing.T) {
	est := NewEstimator(testEstimatorConfig())

	// 250-sample intervals, accepted; history fills with 60s.
	for i := 0; i < 3; i++ {
		if _, ok := est.Update([]int{0, 250, 500}); !ok {
			t.Fatal("expected acceptance")
		}
	}
	// 125-sample intervals = 120 BPM; history now [60 60 60 120].
	bpm, ok := est.Update([]int{0, 125, 250})
	if !ok {
		t.Fatal("120 BPM should be accepted")
	}
	if bpm != 75 {
		t.Fatalf("smoothed bpm = %d, want mean(60,60,60,120) = 75", bpm)
	}
}

func TestRateHistorySmoothingAndEviction(t *testing.T) {
	hist := NewRateHistory(5)
	for _, v := range []int{60, 62, 58, 64, 66} {
		hist.Push(v)
	}

	mean, ok := hist.Mean()
	if !ok || mean != 62 {
		t.Fatalf("mean = %d (ok=%v), want 62", mean, ok)
	}

	// A sixth value evicts the oldest (60); mean(62,58,64,66,70) = 64.
	hist.Push(70)
	if hist.Len() != 5 {
		t.Fatalf("history grew past capacity: %d", hist.Len())
	}
	mean, _ = hist.Mean()
	if mean != 64 {
		t.Fatalf("mean after eviction = %d, want 64", mean)
	}
}

func TestRateHistoryEmpty(t *testing.T) {
	hist := NewRateHistory(5)
	if _, ok := hist.Mean(); ok {
		t.Fatal("empty history has no mean")
	}
}
