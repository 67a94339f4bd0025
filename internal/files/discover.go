package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Discover lists the regular files in dir with the given extension (case
// insensitive, e.g. ".txt"), ordered by DigitKey.
func Discover(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	SortByDigits(out)
	return out, nil
}

// DigitKey is the integer formed by all decimal digits of a file's base name,
// so "S2.txt" sorts before "S10.txt". ok is false when the name has no digits
// or the digits overflow.
func DigitKey(path string) (key uint64, ok bool) {
	var b strings.Builder
	for _, r := range filepath.Base(path) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	key, err := strconv.ParseUint(b.String(), 10, 64)
	return key, err == nil
}

// SortByDigits orders paths by DigitKey; names without digits go last. Ties
// fall back to the name.
func SortByDigits(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		ki, oki := DigitKey(paths[i])
		kj, okj := DigitKey(paths[j])
		switch {
		case oki != okj:
			return oki
		case oki && ki != kj:
			return ki < kj
		}
		return filepath.Base(paths[i]) < filepath.Base(paths[j])
	})
}

// BaseName is the file name without directory and extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
