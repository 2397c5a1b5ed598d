package history

import "github.com/bft-labs/wallrotate/pkg/wallrotate"

// WithHistory returns a wallrotate Option that enables the attempt journal.
//
// Usage:
//
//	r, err := wallrotate.New(cfg,
//	    history.WithHistory(history.Config{Path: "/var/lib/wallrotate/history.db"}),
//	)
func WithHistory(cfg Config) wallrotate.Option {
	return wallrotate.WithPlugin(New(cfg))
}
