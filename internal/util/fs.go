package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// EnsureDir creates the directory path if it does not exist.
func EnsureDir(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// RemoveIfExists deletes the file if present.
func RemoveIfExists(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return os.Remove(path)
	} else if os.IsNotExist(err) {
		return nil
	} else {
		return err
	}
}

// MoveFile moves src into dstDir, keeping its base name, and returns the new
// path. Falls back to copy and remove when rename crosses filesystems.
func MoveFile(src, dstDir string) (string, error) {
	if err := EnsureDir(dstDir); err != nil {
		return "", err
	}
	dst := filepath.Join(dstDir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}
	in.Close()
	return dst, os.Remove(src)
}

// EmptyDir removes every entry inside dir, keeping dir itself.
// A missing dir is not an error.
func EmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const maxTitleRunes = 50

// SanitizeTitle reduces a media title to a filename-safe stem:
// - keep letters, digits, underscores and whitespace; drop everything else
// - truncate to 50 runes and trim
// - collapse whitespace runs into single underscores
// Returns "" when nothing usable is left.
func SanitizeTitle(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if n >= maxTitleRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
			n++
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}

// OutputFilename builds "<sanitized title>_<unix ms>.<ext>". An unusable title
// falls back to "video".
func OutputFilename(title, ext string, now time.Time) string {
	stem := SanitizeTitle(title)
	if stem == "" {
		stem = "video"
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("%s_%d.%s", stem, now.UnixMilli(), ext)
}
