package storage

import "time"

// AlertRecord captures one emitted alert episode for auditing. BPM is nil for
// lead-off alerts, which carry no rate.
type AlertRecord struct {
	ID         int64
	ObservedAt time.Time
	Kind       string
	BPM        *int
	Threshold  int
	Channels   []string
	CreatedAt  time.Time
}
