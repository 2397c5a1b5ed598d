//go:build !windows

package sink

import (
	"context"
	"fmt"
	"runtime"

	"github.com/bft-labs/wallrotate/internal/domain"
)

// SPISink is only available on windows.
type SPISink struct{}

// NewSPISink always fails off windows.
func NewSPISink() (*SPISink, error) {
	return nil, fmt.Errorf("%w: SystemParametersInfo is not available on %s", domain.ErrInvalidConfig, runtime.GOOS)
}

func (*SPISink) Name() string { return "spi" }

func (*SPISink) Apply(ctx context.Context, path string) error {
	return fmt.Errorf("%w: SystemParametersInfo is not available on %s", domain.ErrSink, runtime.GOOS)
}
