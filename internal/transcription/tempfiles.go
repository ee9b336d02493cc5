package transcription

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"scribe/internal/logging"
)

// withTempFile writes content to a uniquely named file under the work directory
// and passes its path to fn. The file is removed exactly once when withTempFile
// returns, whatever fn did. Removal failures are logged and do not replace the
// outcome of fn.
func (s *Service) withTempFile(logger *slog.Logger, suffix string, content []byte, fn func(path string) error) error {
	if err := os.MkdirAll(s.opts.WorkDir, 0o755); err != nil {
		return fmt.Errorf("ensure work dir: %w", err)
	}
	file, err := os.CreateTemp(s.opts.WorkDir, "upload-*"+suffix)
	if err != nil {
		return fmt.Errorf("create temp media: %w", err)
	}
	path := file.Name()
	defer s.cleanup(logger, path, s.removeFile)

	_, writeErr := file.Write(content)
	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("write temp media: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close temp media: %w", closeErr)
	}
	return fn(path)
}

// withTempDir creates a uniquely named directory under the work directory for
// fn and removes it with its contents when withTempDir returns.
func (s *Service) withTempDir(logger *slog.Logger, prefix string, fn func(dir string) error) error {
	if err := os.MkdirAll(s.opts.WorkDir, 0o755); err != nil {
		return fmt.Errorf("ensure work dir: %w", err)
	}
	dir, err := os.MkdirTemp(s.opts.WorkDir, prefix+"*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer s.cleanup(logger, dir, s.removeAll)
	return fn(dir)
}

func (s *Service) cleanup(logger *slog.Logger, path string, remove func(string) error) {
	if err := remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.WarnWithContext(logger, "temporary media cleanup failed", "temp_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the file manually from work_dir"),
			logging.String(logging.FieldImpact, "disk space is not reclaimed"),
		)
	}
}
