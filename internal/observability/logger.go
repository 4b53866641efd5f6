package observability

import (
	"log/slog"

	"github.com/couchcryptid/landslide-feed-etl/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// ServiceName tags every record written through the service logger.
const ServiceName = "landslide-feed-etl"

// NewLogger builds the service logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", ServiceName)
	slog.SetDefault(logger)
	return logger
}
