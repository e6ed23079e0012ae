package ingest

import (
	"log/slog"
	"time"

	"github.com/jmorand/scenepulse/internal/domain"
	"github.com/jmorand/scenepulse/internal/pkg/config"
)

// NewFromConfig builds the configured HTTP sources. A source without its
// own timeout inherits the process-wide default.
func NewFromConfig(sources []config.SourceConfig, defaultTimeout time.Duration, logger *slog.Logger) []domain.IngestionSource {
	out := make([]domain.IngestionSource, 0, len(sources))
	for _, src := range sources {
		timeout := src.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		out = append(out, NewHTTPSource(src.Name, src.URL, src.RPS, timeout, logger))
	}
	return out
}
