package fetch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FilesystemOutput persists raw markup and screenshots from failed
// fetches to a local directory for offline debugging. Nothing depends
// on these artifacts for correctness.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) (*FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return nil, err
	}
	return &FilesystemOutput{directory: dir}, nil
}

func (o *FilesystemOutput) Write(prefix, ext string, contents []byte) {
	if o == nil {
		return
	}
	ts := time.Now().UTC().Format("20060102T150405Z")
	name := fmt.Sprintf("%s_%s.%s", prefix, ts, ext)
	err := os.WriteFile(filepath.Join(o.directory, name), contents, 0600)
	if err != nil {
		slog.Warn("failed to write diagnostic file", "name", name, "err", err)
	}
}
