package ecg

// RemoveBaseline subtracts a centered moving average of the given width from
// each sample, removing slow baseline wander while keeping the fast QRS
// transients that peak detection needs. Windows near the edges shrink
// symmetrically instead of wrapping or padding with zeros. Pure function; the
// output is zero-centered and may be negative.
func RemoveBaseline(samples []int, width int) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}

	half := width / 2
	for i := range samples {
		radius := half
		if i < radius {
			radius = i
		}
		if rem := len(samples) - 1 - i; rem < radius {
			radius = rem
		}

		sum := 0
		for j := i - radius; j <= i+radius; j++ {
			sum += samples[j]
		}
		mean := float64(sum) / float64(2*radius+1)
		out[i] = float64(samples[i]) - mean
	}
	return out
}
