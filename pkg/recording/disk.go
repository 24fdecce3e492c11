package recording

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DiskSink writes each recording to a directory as <id>.<ext> plus a
// <id>.json metadata sidecar.
type DiskSink struct {
	dir string
}

// NewDiskSink creates a DiskSink, creating dir if needed.
func NewDiskSink(dir string) (*DiskSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskSink{dir: dir}, nil
}

// Dir returns the output directory.
func (s *DiskSink) Dir() string {
	return s.dir
}

// Save implements Sink.
func (s *DiskSink) Save(ctx context.Context, a *Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, a.Filename())
	if err := writeFileAtomic(path, a.Data); err != nil {
		return fmt.Errorf("write recording %s: %w", a.ID, err)
	}

	meta, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(s.dir, a.ID+".json"), meta); err != nil {
		os.Remove(path)
		return fmt.Errorf("write recording metadata %s: %w", a.ID, err)
	}
	return nil
}

// writeFileAtomic writes through a temp file so readers never see a
// partial recording.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
