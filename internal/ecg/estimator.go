package ecg

// RateHistory is a bounded FIFO of recently accepted BPM values used as
// smoothing state. Oldest entries drop on overflow.
type RateHistory struct {
	values   []int
	capacity int
}

// NewRateHistory allocates a history holding at most capacity entries.
func NewRateHistory(capacity int) *RateHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &RateHistory{values: make([]int, 0, capacity), capacity: capacity}
}

// Push appends an accepted BPM, evicting the oldest entry when full.
func (h *RateHistory) Push(bpm int) {
	if len(h.values) == h.capacity {
		h.values = h.values[:copy(h.values, h.values[1:])]
	}
	h.values = append(h.values, bpm)
}

// Mean reports the integer mean of the current entries; ok is false when empty.
func (h *RateHistory) Mean() (int, bool) {
	if len(h.values) == 0 {
		return 0, false
	}
	sum := 0
	for _, v := range h.values {
		sum += v
	}
	return sum / len(h.values), true
}

// Len reports the number of stored entries.
func (h *RateHistory) Len() int { return len(h.values) }

// Clear drops all entries.
func (h *RateHistory) Clear() { h.values = h.values[:0] }

// Estimator converts peak positions into a smoothed heart rate. A raw estimate
// outside the physiological bounds is rejected outright: too many spurious
// peaks inflate the rate, missed beats deflate it, and neither should reach
// the history.
type Estimator struct {
	sampleRate int
	minRate    int
	maxRate    int
	history    *RateHistory
}

// NewEstimator builds an estimator from pipeline configuration.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{
		sampleRate: cfg.SampleRateHz,
		minRate:    cfg.MinHeartRate,
		maxRate:    cfg.MaxHeartRate,
		history:    NewRateHistory(cfg.HistoryLength),
	}
}

// Update derives BPM from the mean peak-to-peak interval, validates it against
// the physiological bounds, and on acceptance folds it into the history and
// returns the history mean. ok is false (rate unavailable) with fewer than two
// peaks or a rejected value; the history is untouched in that case and keeps
// smoothing across later ticks.
func (e *Estimator) Update(peaks []int) (int, bool) {
	if len(peaks) < 2 {
		return 0, false
	}

	intervalSum := 0
	for i := 1; i < len(peaks); i++ {
		intervalSum += peaks[i] - peaks[i-1]
	}
	avgInterval := float64(intervalSum) / float64(len(peaks)-1)
	avgSeconds := avgInterval / float64(e.sampleRate)

	bpm := int(60.0 / avgSeconds)
	if bpm < e.minRate || bpm > e.maxRate {
		return 0, false
	}

	e.history.Push(bpm)
	return e.history.Mean()
}

// Reset clears the smoothing history.
func (e *Estimator) Reset() { e.history.Clear() }

// HistoryLen reports how many accepted values the smoother currently holds.
func (e *Estimator) HistoryLen() int { return e.history.Len() }
