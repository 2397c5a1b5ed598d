package fs

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/bft-labs/wallrotate/internal/ports"
)

// imageExtensions are matched case-insensitively.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ImagePool implements ports.ImagePool by walking directories on fsys.
type ImagePool struct {
	fs     afero.Fs
	logger ports.Logger
}

// NewImagePool creates an ImagePool reading from fsys.
func NewImagePool(fsys afero.Fs, logger ports.Logger) *ImagePool {
	return &ImagePool{fs: fsys, logger: logger}
}

// Images walks every directory recursively and returns the image files found.
// Missing or unreadable directories are logged and skipped so one bad entry
// in the config does not empty the whole pool.
func (p *ImagePool) Images(ctx context.Context, directories []string) ([]string, error) {
	var images []string

	for _, dir := range directories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := afero.Walk(p.fs, dir, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				if path == dir {
					return err
				}
				p.logger.Warn("skipping unreadable path", ports.String("path", path), ports.Err(err))
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if info.IsDir() {
				return nil
			}
			if imageExtensions[strings.ToLower(filepath.Ext(path))] {
				images = append(images, path)
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			p.logger.Warn("skipping image directory", ports.String("directory", dir), ports.Err(err))
		}
	}

	return images, nil
}
