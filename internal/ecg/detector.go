package ecg

import "math"

const (
	// thresholdSigma scales the standard deviation when forming the adaptive
	// detection threshold.
	thresholdSigma = 1.5
	// scanMargin excludes indices near either edge of the window where filter
	// artifacts distort amplitudes.
	scanMargin = 5
	// vicinityRadius is the span a candidate must dominate to be confirmed,
	// suppressing duplicate hits on one wide peak.
	vicinityRadius = 15
)

// DetectPeaks finds R-wave candidates in a filtered window and returns their
// indices in ascending order. The threshold adapts to the window itself
// (mean + 1.5 sigma), so the detector carries no state between invocations.
// A candidate must exceed both immediate neighbours and equal the maximum over
// its clamped [i-15, i+15) vicinity. Exact equality is used for that check, so
// equal co-maxima inside one vicinity can each be emitted; callers live with
// the occasional double count rather than this stage growing history.
//
// Windows shorter than 11 samples have an empty scan range and yield no peaks.
func DetectPeaks(window []float64) []int {
	if len(window) <= 2*scanMargin {
		return nil
	}

	mean, std := meanStd(window)
	threshold := mean + thresholdSigma*std

	var peaks []int
	for i := scanMargin; i < len(window)-scanMargin; i++ {
		if window[i] <= threshold {
			continue
		}
		if window[i] <= window[i-1] || window[i] <= window[i+1] {
			continue
		}

		lo := i - vicinityRadius
		if lo < 0 {
			lo = 0
		}
		hi := i + vicinityRadius
		if hi > len(window) {
			hi = len(window)
		}

		max := window[lo]
		for j := lo + 1; j < hi; j++ {
			if window[j] > max {
				max = window[j]
			}
		}
		if window[i] == max {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))

	return mean, math.Sqrt(variance)
}
