package ecg

import "testing"

func flatWindow(n int) []float64 {
	return make([]float64, n)
}

func TestDetectPeaksSingleSpike(t *testing.T) {
	window := flatWindow(200)
	window[80] = 100

	peaks := DetectPeaks(window)
	if len(peaks) != 1 {
		t.Fatalf("expected exactly one peak, got %v", peaks)
	}
	if peaks[0] != 80 {
		t.Fatalf("peak at %d, want 80", peaks[0])
	}
}

func TestDetectPeaksShortWindow(t *testing.T) {
	for _, n := range []int{0, 1, 5, 10} {
		window := flatWindow(n)
		if n > 0 {
			window[n/2] = 50
		}
		if peaks := DetectPeaks(window); len(peaks) != 0 {
			t.Fatalf("window of %d samples should yield no peaks, got %v", n, peaks)
		}
	}
}

func TestDetectPeaksSpacedBeats(t *testing.T) {
	window := flatWindow(1000)
	for _, i := range []int{100, 350, 600, 850} {
		window[i] = 80
	}

	peaks := DetectPeaks(window)
	if len(peaks) != 4 {
		t.Fatalf("expected 4 peaks, got %v", peaks)
	}
	for i := 1; i < len(peaks); i++ {
		if peaks[i] <= peaks[i-1] {
			t.Fatalf("peaks must be ascending: %v", peaks)
		}
	}
}

func TestDetectPeaksMarginExcluded(t *testing.T) {
	window := flatWindow(100)
	window[3] = 90
	window[97] = 90

	if peaks := DetectPeaks(window); len(peaks) != 0 {
		t.Fatalf("spikes inside the edge margin must be ignored, got %v", peaks)
	}
}

func TestDetectPeaksWideBumpSuppressed(t *testing.T) {
	// A single wide bump should produce one confirmed peak, not one per rising
	// sample.
	window := flatWindow(300)
	shape := []float64{10, 30, 60, 90, 60, 30, 10}
	for i, v := range shape {
		window[140+i] = v
	}

	peaks := DetectPeaks(window)
	if len(peaks) != 1 || peaks[0] != 143 {
		t.Fatalf("wide bump should collapse to its apex, got %v", peaks)
	}
}

// Pins the documented exact-equality tie-break: two equal co-maxima closer than
// the suppression radius both survive confirmation and are both emitted.
func TestDetectPeaksEqualTwinPeaks(t *testing.T) {
	window := flatWindow(300)
	window[150] = 100
	window[158] = 100

	peaks := DetectPeaks(window)
	if len(peaks) != 2 || peaks[0] != 150 || peaks[1] != 158 {
		t.Fatalf("equal twins inside one vicinity are double counted by contract, got %v", peaks)
	}
}
