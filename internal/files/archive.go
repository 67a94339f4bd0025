package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/user/cartilage_analyzer_go/internal/config"
)

// CompressedExt is appended to archived files when compression is enabled.
const CompressedExt = ".zst"

// Archiver moves processed raw files into an archive folder next to them.
type Archiver struct {
	cfg config.ArchiveConfig
}

// NewArchiver returns an archiver for the given configuration.
func NewArchiver(cfg config.ArchiveConfig) *Archiver {
	return &Archiver{cfg: cfg}
}

// Enabled reports whether Archive does anything.
func (a *Archiver) Enabled() bool { return a.cfg.Enabled }

// Archive moves path into <dir of path>/<archive dir>/ and returns the new
// location. With compression the file is rewritten as zstd and the original
// removed once the compressed copy is closed.
func (a *Archiver) Archive(path string) (string, error) {
	if !a.cfg.Enabled {
		return path, nil
	}
	dir := filepath.Join(filepath.Dir(path), a.cfg.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive folder %s: %w", dir, err)
	}
	dst := filepath.Join(dir, filepath.Base(path))

	if !a.cfg.Compress {
		if err := os.Rename(path, dst); err != nil {
			return "", fmt.Errorf("failed to archive %s: %w", path, err)
		}
		return dst, nil
	}

	dst += CompressedExt
	if err := compressFile(path, dst); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to archive %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("failed to remove archived %s: %w", path, err)
	}
	return dst, nil
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		out.Close()
		return err
	}
	if _, err := io.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadArchived returns the contents of an archived file, decompressing it
// when it carries the zstd extension.
func ReadArchived(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) != CompressedExt {
		return data, nil
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	return out, nil
}
