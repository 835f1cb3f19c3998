package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecg_ticks_total",
		Help: "Total number of ingestion ticks executed",
	})

	samplesIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecg_samples_ingested_total",
		Help: "Total number of amplitude readings accepted into the buffer",
	})

	leadOffTicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecg_lead_off_ticks_total",
		Help: "Total number of ticks whose batch contained a lead-off sentinel",
	})

	heartRateBPM = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ecg_heart_rate_bpm",
		Help: "Smoothed heart rate in beats per minute; 0 while unavailable",
	})

	signalQuality = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ecg_signal_quality",
		Help: "Signal quality of the latest tick: 1 good, 0 lead-off",
	})

	bufferFill = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ecg_buffer_fill",
		Help: "Number of samples currently in the waveform buffer",
	})

	alertsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecg_alerts_emitted_total",
		Help: "Total number of alerts emitted",
	}, []string{"kind"})
)
