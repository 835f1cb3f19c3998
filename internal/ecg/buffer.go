package ecg

// RollingBuffer is a fixed-capacity FIFO of recent amplitudes backed by a ring.
// It is the single source of truth for the current waveform window; insertion
// order is arrival order is time order. Once full, every push evicts the oldest
// entry.
type RollingBuffer struct {
	data []int
	head int
	size int
}

// NewRollingBuffer allocates a buffer holding at most capacity samples.
func NewRollingBuffer(capacity int) *RollingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingBuffer{data: make([]int, capacity)}
}

// Push appends one reading, evicting the oldest if the buffer is full.
func (b *RollingBuffer) Push(amplitude int) {
	tail := (b.head + b.size) % len(b.data)
	b.data[tail] = amplitude
	if b.size < len(b.data) {
		b.size++
		return
	}
	b.head = (b.head + 1) % len(b.data)
}

// Clear empties the buffer. Invoked on (re)connect.
func (b *RollingBuffer) Clear() {
	b.head = 0
	b.size = 0
}

// Len reports the number of buffered samples.
func (b *RollingBuffer) Len() int { return b.size }

// Cap reports the fixed capacity.
func (b *RollingBuffer) Cap() int { return len(b.data) }

// Snapshot copies the current contents, oldest first. Downstream stages treat
// the result as read-only input; the buffer itself is never handed out.
func (b *RollingBuffer) Snapshot() []int {
	out := make([]int, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.data[(b.head+i)%len(b.data)]
	}
	return out
}
