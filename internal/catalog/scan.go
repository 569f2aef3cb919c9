package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	gimage "masonry-gallery/internal/image"
)

// ErrNotDirectory is returned when Scan is given a regular file.
var ErrNotDirectory = errors.New("not a directory")

// Scan lists the supported images directly inside dir, in natural order.
func Scan(dir string) ([]ImageDescriptor, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	var items []ImageDescriptor
	for _, entry := range entries {
		if entry.IsDir() || !gimage.IsSupportedFormat(entry.Name()) {
			continue
		}
		item := ImageDescriptor{
			Path: filepath.Join(dir, entry.Name()),
			Name: entry.Name(),
		}
		if fi, err := entry.Info(); err == nil {
			item.Timestamp = fi.ModTime()
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return NaturalLess(items[i].Name, items[j].Name)
	})
	return items, nil
}

// NaturalLess orders strings so that embedded digit runs compare by
// numeric value: "img2" < "img10". Letters compare case-insensitively,
// with the raw string as tie breaker.
func NaturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			si := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			sj := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			if c := compareDigits(a[si:i], b[sj:j]); c != 0 {
				return c < 0
			}
			continue
		}
		la, lb := lower(ca), lower(cb)
		if la != lb {
			return la < lb
		}
		i++
		j++
	}
	if len(a)-i != len(b)-j {
		return len(a)-i < len(b)-j
	}
	return a < b
}

// compareDigits compares two digit runs by value, then by length so that
// "01" sorts after "1".
func compareDigits(a, b string) int {
	ta, tb := trimZeros(a), trimZeros(b)
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func trimZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
