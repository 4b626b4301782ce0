package infrastructure

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/yourusername/quickdl-go/internal/domain"
	"go.uber.org/zap"
)

// FileSaver is the CLI save-as mechanism: it writes retrieved files into a
// directory atomically and never overwrites an existing file.
type FileSaver struct {
	dir    string
	logger *zap.Logger
}

// NewFileSaver creates a saver writing into dir
func NewFileSaver(dir string, logger *zap.Logger) *FileSaver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSaver{dir: dir, logger: logger}
}

// Dir returns the target directory
func (s *FileSaver) Dir() string {
	return s.dir
}

// Save implements domain.FileSink
func (s *FileSaver) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	target, err := s.availablePath(name)
	if err != nil {
		return "", err
	}

	pendingFile, err := renameio.NewPendingFile(target, renameio.WithPermissions(0644))
	if err != nil {
		return "", fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			s.logger.Debug("Cleanup pending file", zap.Error(err))
		}
	}()

	written, err := io.Copy(pendingFile, contextReader{ctx: ctx, r: r})
	if err != nil {
		return "", fmt.Errorf("write %s: %w", filepath.Base(target), err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace %s: %w", filepath.Base(target), err)
	}

	s.logger.Debug("File saved",
		zap.String("path", target),
		zap.Int64("bytes", written))
	return target, nil
}

// availablePath returns dir/name, or dir/name (n).ext when taken
func (s *FileSaver) availablePath(name string) (string, error) {
	name = domain.FilenameFromLocator(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(s.dir, name)
	for i := 1; i < 1000; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		candidate = filepath.Join(s.dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
	return "", fmt.Errorf("no free file name for %s in %s", name, s.dir)
}

// contextReader stops a copy once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
