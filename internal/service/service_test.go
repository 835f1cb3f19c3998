package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ecg-monitor/internal/alerting"
	"ecg-monitor/internal/config"
	"ecg-monitor/internal/display"
	"ecg-monitor/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		Pipeline: config.PipelineConfig{
			SampleRateHz:         250,
			DisplayWindowSeconds: 6,
			BaselineFilterWidth:  25,
			MinHeartRate:         40,
			MaxHeartRate:         200,
			HistoryLength:        5,
			RecomputeInterval:    time.Second,
		},
		Alerting: config.AlertingConfig{
			Enabled:  true,
			LowBPM:   50,
			HighBPM:  120,
			LeadOff:  true,
			Cooldown: time.Minute,
			Channels: []string{"telegram"},
		},
	}
}

// beatChunk renders n wire lines with 500-count spikes every spikeEvery
// samples, first at firstSpike.
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

type queueSource struct {
	chunks [][]byte
	err    error
}

func (q *queueSource) ReadAvailable() ([]byte, error) {
	if q.err != nil {
		return nil, q.err
	}
	if len(q.chunks) == 0 {
		return nil, nil
	}
	chunk := q.chunks[0]
	q.chunks = q.chunks[1:]
	return chunk, nil
}

func (q *queueSource) Close() error { return nil }

type capturePublisher struct {
	last  *display.Snapshot
	count int
}

func (p *capturePublisher) Publish(snap display.Snapshot) {
	p.last = &snap
	p.count++
}

type captureNotifier struct {
	notes []alerting.Notification
}

func (n *captureNotifier) Notify(ctx context.Context, note alerting.Notification) error {
	n.notes = append(n.notes, note)
	return nil
}

type captureAlertStore struct {
	records []storage.AlertRecord
}

func (s *captureAlertStore) InsertAlert(ctx context.Context, alert storage.AlertRecord) (storage.AlertRecord, error) {
	s.records = append(s.records, alert)
	return alert, nil
}

func (s *captureAlertStore) ListRecentAlerts(ctx context.Context, limit int) ([]storage.AlertRecord, error) {
	return s.records, nil
}

func (s *captureAlertStore) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	return nil
}

func TestMonitorTickPublishesSnapshot(t *testing.T) {
	source := &queueSource{chunks: [][]byte{beatChunk(1500, 250, 100)}}
	pub := &capturePublisher{}
	m := New(testConfig(), nil, source, pub, nil, nil, zerolog.Nop())

	start := time.Unix(100, 0)
	m.Reset(start)

	if err := m.Tick(context.Background(), start.Add(1100*time.Millisecond)); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	if pub.count != 1 || pub.last == nil {
		t.Fatalf("expected one published snapshot, got %d", pub.count)
	}
	if len(pub.last.Values) != 1500 {
		t.Fatalf("snapshot carries %d samples, want 1500", len(pub.last.Values))
	}
	if pub.last.Quality != "good" {
		t.Fatalf("snapshot quality = %q", pub.last.Quality)
	}
	if pub.last.BPM == nil || *pub.last.BPM != 60 {
		t.Fatalf("snapshot bpm = %v, want 60", pub.last.BPM)
	}
	if got := pub.last.Times[250]; got != 1.0 {
		t.Fatalf("t[250] = %g, want 1.0 at 250 Hz", got)
	}
}

func TestMonitorSnapshotBPMNullWhileUnavailable(t *testing.T) {
	source := &queueSource{chunks: [][]byte{beatChunk(100, 250, 50)}}
	pub := &capturePublisher{}
	m := New(testConfig(), nil, source, pub, nil, nil, zerolog.Nop())

	start := time.Unix(100, 0)
	m.Reset(start)
	if err := m.Tick(context.Background(), start.Add(10*time.Millisecond)); err != nil {
		t.Fatalf("tick failed: %v", err)
	}

	if pub.last == nil || pub.last.BPM != nil {
		t.Fatal("bpm must be null while the rate is unavailable")
	}
}

func TestMonitorHighRateAlertWithCooldown(t *testing.T) {
	source := &queueSource{chunks: [][]byte{beatChunk(1500, 100, 50)}}
	notifier := &captureNotifier{}
	store := &captureAlertStore{}
	m := New(testConfig(), nil, source, nil, notifier, store, zerolog.Nop())

	start := time.Unix(100, 0)
	m.Reset(start)

	if err := m.Tick(context.Background(), start.Add(2*time.Second)); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(notifier.notes))
	}
	note := notifier.notes[0]
	if note.Kind != alerting.KindHighRate {
		t.Fatalf("alert kind = %q, want high_rate", note.Kind)
	}
	if !note.HasBPM || note.BPM != 150 {
		t.Fatalf("alert bpm = %d (has=%v), want 150", note.BPM, note.HasBPM)
	}

	if len(store.records) != 1 || store.records[0].BPM == nil || *store.records[0].BPM != 150 {
		t.Fatalf("alert should be audited with its rate: %#v", store.records)
	}

	// Condition persists on the next tick, but cooldown suppresses the repeat.
	if err := m.Tick(context.Background(), start.Add(2500*time.Millisecond)); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("cooldown should suppress the repeat alert, got %d", len(notifier.notes))
	}
}

func TestMonitorLeadOffTransitionAlert(t *testing.T) {
	source := &queueSource{chunks: [][]byte{
		beatChunk(300, 250, 100),
		[]byte("-1\n"),
		[]byte("-1\n"),
	}}
	notifier := &captureNotifier{}
	m := New(testConfig(), nil, source, nil, notifier, nil, zerolog.Nop())

	start := time.Unix(100, 0)
	m.Reset(start)

	ctx := context.Background()
	if err := m.Tick(ctx, start.Add(15*time.Millisecond)); err != nil {
		t.Fatalf("tick 1 failed: %v", err)
	}
	if len(notifier.notes) != 0 {
		t.Fatalf("no alert expected on a good tick, got %d", len(notifier.notes))
	}

	if err := m.Tick(ctx, start.Add(30*time.Millisecond)); err != nil {
		t.Fatalf("tick 2 failed: %v", err)
	}
	if len(notifier.notes) != 1 || notifier.notes[0].Kind != alerting.KindLeadOff {
		t.Fatalf("expected one lead-off alert, got %#v", notifier.notes)
	}

	// Still lead-off: no transition, no repeat.
	if err := m.Tick(ctx, start.Add(45*time.Millisecond)); err != nil {
		t.Fatalf("tick 3 failed: %v", err)
	}
	if len(notifier.notes) != 1 {
		t.Fatalf("sustained lead-off should not re-alert, got %d", len(notifier.notes))
	}
}

func TestMonitorTransportErrorSurfaced(t *testing.T) {
	source := &queueSource{err: errors.New("port unplugged")}
	m := New(testConfig(), nil, source, nil, nil, nil, zerolog.Nop())
	m.Reset(time.Unix(100, 0))

	if err := m.Tick(context.Background(), time.Unix(101, 0)); err == nil {
		t.Fatal("transport failure must surface as the tick error")
	}
}

func TestMonitorRunRequiresScheduler(t *testing.T) {
	m := New(testConfig(), nil, &queueSource{}, nil, nil, nil, zerolog.Nop())
	if err := m.Run(context.Background()); err == nil {
		t.Fatal("run without a scheduler must fail")
	}
}
