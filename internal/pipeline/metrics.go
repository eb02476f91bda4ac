package pipeline

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for candidate finding.
var (
	tracer = otel.Tracer("curato.pipeline")
	meter  = otel.Meter("curato.pipeline")
)

var (
	sentencesTotal  metric.Int64Counter
	evidencesTotal  metric.Int64Counter
	candidatesTotal metric.Int64Counter
	runLatency      metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		sentencesTotal, err = meter.Int64Counter(
			"curato_sentences_total",
			metric.WithDescription("Sentences processed"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		evidencesTotal, err = meter.Int64Counter(
			"curato_evidences_total",
			metric.WithDescription("Evidence found across all extractors"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		candidatesTotal, err = meter.Int64Counter(
			"curato_candidates_total",
			metric.WithDescription("Candidates generated"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runLatency, err = meter.Float64Histogram(
			"curato_run_duration_seconds",
			metric.WithDescription("Duration of a corpus run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func startRunSpan(ctx context.Context, sentences, workers int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Finder.Run",
		trace.WithAttributes(
			attribute.Int("curato.sentences", sentences),
			attribute.Int("curato.workers", workers),
		),
	)
}

func setRunSpanResult(span trace.Span, evidences, candidates int) {
	span.SetAttributes(
		attribute.Int("curato.evidences", evidences),
		attribute.Int("curato.candidates", candidates),
	)
}

func recordRunMetrics(ctx context.Context, duration time.Duration, sentences, evidences, candidates int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))
	runLatency.Record(ctx, duration.Seconds(), attrs)
	sentencesTotal.Add(ctx, int64(sentences), attrs)
	evidencesTotal.Add(ctx, int64(evidences), attrs)
	candidatesTotal.Add(ctx, int64(candidates), attrs)
}
