package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Writer replaces files in one directory atomically: content goes to a temp
// file in the same directory, is synced, then renamed over the target.
// Readers see either the previous file or the new one, never a partial write.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the directory artifacts are written to.
func (w *Writer) Dir() string {
	return w.dir
}

// Write atomically replaces name with data and returns the new modification time.
// On failure the temp file is removed and the previous file is left untouched.
func (w *Writer) Write(name string, data []byte) (modTime time.Time, err error) {
	target := filepath.Join(w.dir, name)

	tmp, err := os.CreateTemp(w.dir, "."+name+".*.tmp")
	if err != nil {
		return time.Time{}, fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return time.Time{}, fmt.Errorf("write temp for %s: %w", name, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return time.Time{}, fmt.Errorf("chmod temp for %s: %w", name, err)
	}
	if err = tmp.Sync(); err != nil {
		return time.Time{}, fmt.Errorf("sync temp for %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return time.Time{}, fmt.Errorf("close temp for %s: %w", name, err)
	}
	if err = os.Rename(tmpPath, target); err != nil {
		return time.Time{}, fmt.Errorf("replace %s: %w", name, err)
	}

	info, statErr := os.Stat(target)
	if statErr != nil {
		// the replace already happened; report it as written now
		return time.Now(), nil
	}
	return info.ModTime(), nil
}

// EncodeJSON renders v as two-space indented JSON without HTML escaping.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
