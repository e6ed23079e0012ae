package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jmorand/scenepulse/internal/adapter/metrics"
	"github.com/jmorand/scenepulse/internal/domain"
)

// SourceResult records the outcome of one ingestion source's fetch.
type SourceResult struct {
	Ingestor string `json:"ingestor"`
	Events   int    `json:"events"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// PipelineResult summarizes one pipeline run.
type PipelineResult struct {
	TotalIngested   int                     `json:"total_ingested"`
	TotalNormalized int                     `json:"total_normalized"`
	TotalPublished  int                     `json:"total_published"`
	Sources         []SourceResult          `json:"sources"`
	Errors          []string                `json:"errors,omitempty"`
	Duration        time.Duration           `json:"duration_ms"`
	Published       []domain.PublishedEvent `json:"-"`
}

// Pipeline fans out to all ingestion sources, reduces the raw batches to
// a canonical weighted stream, and hands the result to the publisher.
// Configuration is read-only, so a Pipeline is safe for concurrent runs.
type Pipeline struct {
	sources     []domain.IngestionSource
	normalizer  *Normalizer
	weights     *WeightEngine
	rules       domain.RuleStore
	publisher   domain.Publisher
	broadcaster domain.Broadcaster
	metrics     *metrics.PipelineMetrics
	logger      *slog.Logger
}

// NewPipeline wires the processing stages. rules, broadcaster and m may
// be nil: a nil rule store skips the rules stage, a nil broadcaster
// skips realtime fan-out, a nil metrics struct disables instrumentation.
func NewPipeline(
	sources []domain.IngestionSource,
	rules domain.RuleStore,
	publisher domain.Publisher,
	broadcaster domain.Broadcaster,
	table WeightTable,
	m *metrics.PipelineMetrics,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		sources:     sources,
		normalizer:  NewNormalizer(logger),
		weights:     NewWeightEngine(table, logger),
		rules:       rules,
		publisher:   publisher,
		broadcaster: broadcaster,
		metrics:     m,
		logger:      logger.With("component", "pipeline"),
	}
}

// Run executes one full pipeline pass for a workspace. Only a publish
// failure is fatal; source failures are isolated per source and recorded
// in the result.
func (p *Pipeline) Run(ctx context.Context, workspaceID string) (*PipelineResult, error) {
	ctx, span := otel.Tracer("pipeline").Start(ctx, "Pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.String("workspace_id", workspaceID))

	start := time.Now()
	result := &PipelineResult{}

	raws := p.fanOut(ctx, result)
	result.TotalIngested = len(raws)
	if p.metrics != nil {
		p.metrics.EventsTotal.WithLabelValues("ingested").Add(float64(len(raws)))
	}

	if len(raws) == 0 {
		result.Duration = time.Since(start)
		p.logger.Info("pipeline run ingested zero events, skipping downstream stages")
		p.observeRun(result)
		return result, nil
	}

	normalized := p.normalizer.NormalizeEvents(raws)
	result.TotalNormalized = len(normalized)
	if p.metrics != nil {
		p.metrics.EventsTotal.WithLabelValues("normalized").Add(float64(len(normalized)))
	}

	merged := MergeDuplicates(normalized)
	weighted := p.weights.ApplyWeights(merged)

	// Rules run on already-weighted events so modifier rules scale the
	// configured weight instead of being recomputed away.
	if p.rules != nil {
		rules, err := p.rules.RulesForWorkspace(ctx, workspaceID)
		if err != nil {
			// Rules are an enhancement, not a gate. Record and continue.
			p.logger.Error("failed to load workspace rules, continuing without", "error", err, "workspace_id", workspaceID)
			result.Errors = append(result.Errors, fmt.Sprintf("rules: %v", err))
		} else if len(rules) > 0 {
			weighted = ApplyRules(weighted, rules)
		}
	}

	published, err := p.publisher.Publish(ctx, weighted)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("publish: %v", err))
		result.Duration = time.Since(start)
		p.observeRun(result)
		return result, fmt.Errorf("failed to publish event batch: %w", err)
	}
	result.TotalPublished = len(published)
	result.Published = published
	if p.metrics != nil {
		p.metrics.EventsTotal.WithLabelValues("published").Add(float64(len(published)))
	}

	if p.broadcaster != nil {
		// Fire-and-forget by contract; the broadcaster logs its own failures.
		p.broadcaster.Broadcast(ctx, published)
	}

	result.Duration = time.Since(start)
	p.observeRun(result)
	p.logger.Info("pipeline run complete",
		"ingested", result.TotalIngested,
		"normalized", result.TotalNormalized,
		"published", result.TotalPublished,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// fanOut invokes every source concurrently and waits for all of them to
// settle. A source error or panic becomes a failed SourceResult; it
// never aborts the batch.
func (p *Pipeline) fanOut(ctx context.Context, result *PipelineResult) []domain.RawEvent {
	results := make([]SourceResult, len(p.sources))
	batches := make([][]domain.RawEvent, len(p.sources))

	var wg sync.WaitGroup
	for i, source := range p.sources {
		wg.Add(1)
		go func(i int, source domain.IngestionSource) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[i] = SourceResult{
						Ingestor: source.Name(),
						Success:  false,
						Error:    fmt.Sprintf("panic: %v", r),
					}
				}
			}()

			events, err := source.FetchEvents(ctx)
			if err != nil {
				results[i] = SourceResult{Ingestor: source.Name(), Success: false, Error: err.Error()}
				return
			}
			batches[i] = events
			results[i] = SourceResult{Ingestor: source.Name(), Events: len(events), Success: true}
		}(i, source)
	}
	wg.Wait()

	var raws []domain.RawEvent
	for i, r := range results {
		result.Sources = append(result.Sources, r)
		if !r.Success {
			p.logger.Error("ingestion source failed", "source", r.Ingestor, "error", r.Error)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", r.Ingestor, r.Error))
			if p.metrics != nil {
				p.metrics.SourceFailures.WithLabelValues(r.Ingestor).Inc()
			}
			continue
		}
		raws = append(raws, batches[i]...)
	}
	return raws
}

func (p *Pipeline) observeRun(result *PipelineResult) {
	if p.metrics == nil {
		return
	}
	p.metrics.RunDuration.Observe(result.Duration.Seconds())
	status := "ok"
	if len(result.Errors) > 0 {
		status = "error"
	}
	p.metrics.RunsTotal.WithLabelValues(status).Inc()
}
