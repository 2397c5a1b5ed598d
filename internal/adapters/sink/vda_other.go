//go:build !windows

package sink

import (
	"context"
	"fmt"
	"runtime"

	"github.com/bft-labs/wallrotate/internal/domain"
)

// VDASink is only available on windows.
type VDASink struct{}

// NewVDASink always fails off windows.
func NewVDASink(build uint32) (*VDASink, error) {
	return nil, fmt.Errorf("%w: virtual desktop manager is not available on %s", domain.ErrInvalidConfig, runtime.GOOS)
}

func (*VDASink) Name() string { return "vda" }

func (*VDASink) Apply(ctx context.Context, path string) error {
	return fmt.Errorf("%w: virtual desktop manager is not available on %s", domain.ErrSink, runtime.GOOS)
}
