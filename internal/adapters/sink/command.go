package sink

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bft-labs/wallrotate/internal/domain"
	"github.com/bft-labs/wallrotate/internal/ports"
)

// PathPlaceholder is replaced with the absolute image path in command args.
const PathPlaceholder = "{path}"

// CommandSink applies wallpapers by running an external command.
type CommandSink struct {
	argv   []string
	logger ports.Logger
}

// NewCommandSink creates a command sink. argv[0] is the program.
func NewCommandSink(argv []string, logger ports.Logger) (*CommandSink, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, fmt.Errorf("%w: empty sink command", domain.ErrInvalidConfig)
	}
	placeholder := false
	for _, a := range argv {
		if strings.Contains(a, PathPlaceholder) {
			placeholder = true
			break
		}
	}
	argv = append([]string(nil), argv...)
	if !placeholder {
		argv = append(argv, PathPlaceholder)
	}
	return &CommandSink{argv: argv, logger: logger}, nil
}

// Name returns the sink identifier.
func (s *CommandSink) Name() string { return "command:" + filepath.Base(s.argv[0]) }

// Args returns the argv for path.
func (s *CommandSink) Args(path string) []string {
	args := make([]string, len(s.argv))
	for i, a := range s.argv {
		args[i] = strings.ReplaceAll(a, PathPlaceholder, path)
	}
	return args
}

// Apply runs the command. A non-zero exit status is a sink error carrying
// the command output.
func (s *CommandSink) Apply(ctx context.Context, path string) error {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	args := s.Args(path)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	s.logger.Debug("running sink command", ports.Strings("args", args))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(out.String())
		if msg != "" {
			return fmt.Errorf("%w: %s: %w: %s", domain.ErrSink, args[0], err, msg)
		}
		return fmt.Errorf("%w: %s: %w", domain.ErrSink, args[0], err)
	}
	return nil
}
