package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BackupLayout names a backup directory after its UTC creation time.
const BackupLayout = "20060102T150405Z"

// Backup copies every existing artifact in dataDir into a fresh
// backupDir/<timestamp>/ directory. Missing artifacts are skipped and names
// outside Names() are refused with ErrUnknownArtifact. It returns
// the backup directory and how many files were copied; when nothing exists no
// directory is created.
func Backup(dataDir, backupDir string, names []string, now time.Time) (string, int, error) {
	dest := filepath.Join(backupDir, now.UTC().Format(BackupLayout))

	copied := 0
	var errs []error
	for _, name := range names {
		if err := Validate(name); err != nil {
			errs = append(errs, fmt.Errorf("backup %s: %w", name, err))
			continue
		}
		src := filepath.Join(dataDir, name)
		if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if copied == 0 {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return "", 0, fmt.Errorf("create backup dir: %w", err)
			}
		}
		if err := copyFile(src, filepath.Join(dest, name)); err != nil {
			errs = append(errs, fmt.Errorf("backup %s: %w", name, err))
			continue
		}
		copied++
	}

	if copied == 0 {
		return "", 0, errors.Join(errs...)
	}
	return dest, copied, errors.Join(errs...)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
