package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ecg-monitor/internal/alerting"
	"ecg-monitor/internal/config"
	"ecg-monitor/internal/display"
	"ecg-monitor/internal/ecg"
	"ecg-monitor/internal/scheduler"
	"ecg-monitor/internal/storage"
)

// ByteSource is the transport collaborator: a non-blocking drain of whatever
// bytes arrived since the last tick. A nil, nil return means idle.
type ByteSource interface {
	ReadAvailable() ([]byte, error)
	Close() error
}

// Publisher receives one completed snapshot per tick for rendering.
type Publisher interface {
	Publish(snap display.Snapshot)
}

// Monitor orchestrates ingestion, the signal pipeline, display publishing, and
// alerting. The pipeline is owned exclusively by the monitor and touched only
// inside Tick; everything downstream sees read-only snapshots.
type Monitor struct {
	cfg        *config.Config
	scheduler  *scheduler.Scheduler
	source     ByteSource
	pipeline   *ecg.Pipeline
	publisher  Publisher
	notifier   alerting.Notifier
	alertStore storage.AlertStore
	logger     zerolog.Logger

	prevQuality ecg.Quality
	lastAlert   map[string]time.Time
	lastLogged  int
}

// New constructs the monitor. Publisher, notifier, and alert store may each be
// nil; the corresponding step is skipped.
func New(cfg *config.Config, sched *scheduler.Scheduler, source ByteSource, publisher Publisher, notifier alerting.Notifier, alertStore storage.AlertStore, logger zerolog.Logger) *Monitor {
	return &Monitor{
		cfg:         cfg,
		scheduler:   sched,
		source:      source,
		pipeline:    ecg.NewPipeline(cfg.Pipeline.ECG()),
		publisher:   publisher,
		notifier:    notifier,
		alertStore:  alertStore,
		logger:      logger.With().Str("component", "service").Logger(),
		prevQuality: ecg.QualityGood,
		lastAlert:   make(map[string]time.Time),
	}
}

// Reset clears the pipeline and alert bookkeeping, as on (re)connect.
func (m *Monitor) Reset(now time.Time) {
	m.pipeline.Reset(now)
	m.prevQuality = ecg.QualityGood
	m.lastAlert = make(map[string]time.Time)
	m.lastLogged = 0
}

// Run begins the poll loop.
func (m *Monitor) Run(ctx context.Context) error {
	if m.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	m.Reset(time.Now())
	return m.scheduler.Run(ctx, m.Tick)
}

// Tick executes one ingestion cycle: drain the transport, advance the
// pipeline, publish the refreshed snapshot, and evaluate alerts. A transport
// failure is returned as the tick's error; the loop itself keeps running.
func (m *Monitor) Tick(ctx context.Context, now time.Time) error {
	ticksTotal.Inc()

	var chunk []byte
	if m.source != nil {
		read, err := m.source.ReadAvailable()
		if err != nil {
			return fmt.Errorf("read transport: %w", err)
		}
		chunk = read
	}

	accepted := m.pipeline.Ingest(chunk, now)

	quality := m.pipeline.Quality()
	bpm, hasBPM := m.pipeline.HeartRate()

	samplesIngestedTotal.Add(float64(accepted))
	bufferFill.Set(float64(m.pipeline.BufferLen()))
	if quality == ecg.QualityLeadOff {
		leadOffTicksTotal.Inc()
		signalQuality.Set(0)
	} else {
		signalQuality.Set(1)
	}
	if hasBPM {
		heartRateBPM.Set(float64(bpm))
	} else {
		heartRateBPM.Set(0)
	}

	if m.publisher != nil {
		m.publisher.Publish(m.buildSnapshot(now, quality, bpm, hasBPM))
	}

	m.logRate(bpm, hasBPM)
	m.evaluateAlerts(ctx, now, quality, bpm, hasBPM)
	m.prevQuality = quality

	return nil
}

func (m *Monitor) buildSnapshot(now time.Time, quality ecg.Quality, bpm int, hasBPM bool) display.Snapshot {
	values := m.pipeline.Snapshot()
	rate := float64(m.cfg.Pipeline.SampleRateHz)

	times := make([]float64, len(values))
	for i := range times {
		times[i] = float64(i) / rate
	}

	snap := display.Snapshot{
		UpdatedAt: now.UTC(),
		Quality:   quality.String(),
		Times:     times,
		Values:    values,
	}
	if hasBPM {
		v := bpm
		snap.BPM = &v
	}
	return snap
}

// logRate reports the smoothed rate whenever it changes, not per tick.
func (m *Monitor) logRate(bpm int, hasBPM bool) {
	if !hasBPM {
		m.lastLogged = 0
		return
	}
	if bpm == m.lastLogged {
		return
	}
	m.lastLogged = bpm
	m.logger.Info().Int("bpm", bpm).Msg("heart rate updated")
}

func (m *Monitor) evaluateAlerts(ctx context.Context, now time.Time, quality ecg.Quality, bpm int, hasBPM bool) {
	if !m.cfg.Alerting.Enabled {
		return
	}

	if quality == ecg.QualityLeadOff && m.prevQuality == ecg.QualityGood && m.cfg.Alerting.LeadOff {
		m.emitAlert(ctx, now, alerting.Notification{
			ObservedAt: now,
			Kind:       alerting.KindLeadOff,
			Channels:   m.cfg.Alerting.Channels,
		})
	}

	if !hasBPM {
		return
	}

	switch {
	case bpm < m.cfg.Alerting.LowBPM:
		m.emitAlert(ctx, now, alerting.Notification{
			ObservedAt: now,
			Kind:       alerting.KindLowRate,
			BPM:        bpm,
			HasBPM:     true,
			Threshold:  m.cfg.Alerting.LowBPM,
			Channels:   m.cfg.Alerting.Channels,
		})
	case bpm > m.cfg.Alerting.HighBPM:
		m.emitAlert(ctx, now, alerting.Notification{
			ObservedAt: now,
			Kind:       alerting.KindHighRate,
			BPM:        bpm,
			HasBPM:     true,
			Threshold:  m.cfg.Alerting.HighBPM,
			Channels:   m.cfg.Alerting.Channels,
		})
	}
}

// emitAlert dispatches one alert, subject to the per-kind cooldown. Storage
// and delivery failures are logged, never propagated into the tick loop.
func (m *Monitor) emitAlert(ctx context.Context, now time.Time, note alerting.Notification) {
	if last, ok := m.lastAlert[note.Kind]; ok && now.Sub(last) < m.cfg.Alerting.Cooldown {
		return
	}
	m.lastAlert[note.Kind] = now

	alertsEmittedTotal.WithLabelValues(note.Kind).Inc()
	m.logger.Warn().Str("kind", note.Kind).Int("bpm", note.BPM).Msg("alert condition")

	if m.alertStore != nil {
		record := storage.AlertRecord{
			ObservedAt: note.ObservedAt,
			Kind:       note.Kind,
			Threshold:  note.Threshold,
			Channels:   note.Channels,
		}
		if note.HasBPM {
			v := note.BPM
			record.BPM = &v
		}
		if _, err := m.alertStore.InsertAlert(ctx, record); err != nil {
			m.logger.Error().Err(err).Str("kind", note.Kind).Msg("failed to persist alert record")
		}
	}

	if m.notifier != nil {
		if err := m.notifier.Notify(ctx, note); err != nil {
			m.logger.Error().Err(err).Str("kind", note.Kind).Msg("failed to dispatch alert")
		}
	}
}

// Pipeline exposes the pipeline for read-only inspection after Tick returns.
func (m *Monitor) Pipeline() *ecg.Pipeline { return m.pipeline }
