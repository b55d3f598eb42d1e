package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes tables into a local directory, creating it if needed.
type DirSink struct {
	Dir string
}

// NewDirSink returns a sink rooted at dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// Put writes data to Dir/name through a temporary file and a rename, so a
// failed run never leaves a half-written table behind.
func (s *DirSink) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(s.Dir, name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
