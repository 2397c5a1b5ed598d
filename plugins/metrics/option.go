package metrics

import "github.com/bft-labs/wallrotate/pkg/wallrotate"

// WithMetrics returns a wallrotate Option that enables the metrics plugin.
//
// Usage:
//
//	r, err := wallrotate.New(cfg,
//	    metrics.WithMetrics(metrics.Config{Addr: "127.0.0.1:9108"}),
//	)
func WithMetrics(cfg Config) wallrotate.Option {
	return wallrotate.WithPlugin(New(cfg))
}
