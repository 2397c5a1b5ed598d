package ports

import "context"

// ImagePool supplies the current candidate images on demand.
type ImagePool interface {
	// Images returns every image found under directories. No ordering is
	// guaranteed.
	Images(ctx context.Context, directories []string) ([]string, error)
}
