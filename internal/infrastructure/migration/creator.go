package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// versionLayout sorts lexically in apply order
const versionLayout = "20060102150405"

// Entry is one migration pair found in a source
type Entry struct {
	Version uint64
	Name    string
	HasUp   bool
	HasDown bool
}

// Pair is a freshly created migration
type Pair struct {
	Version  string
	UpPath   string
	DownPath string
}

// Create writes an empty up/down pair named after name into dir
func Create(dir, name string, now time.Time) (Pair, error) {
	slug := slugify(name)
	if slug == "" {
		return Pair{}, errors.New("migration name must contain letters or digits")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Pair{}, fmt.Errorf("create migrations dir: %w", err)
	}
	version := now.UTC().Format(versionLayout)
	base := filepath.Join(dir, version+"_"+slug)
	p := Pair{Version: version, UpPath: base + ".up.sql", DownPath: base + ".down.sql"}

	header := fmt.Sprintf("-- %s\n-- created %s\n\n", name, now.UTC().Format(time.RFC3339))
	if err := writeNew(p.UpPath, header); err != nil {
		return Pair{}, err
	}
	if err := writeNew(p.DownPath, header); err != nil {
		_ = os.Remove(p.UpPath)
		return Pair{}, err
	}
	return p, nil
}

func writeNew(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// slugify lowercases name and joins its words with underscores
func slugify(name string) string {
	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sep = true
		}
	}
	return b.String()
}

// List returns the migrations in src ordered by version. A file that does not
// follow the VERSION_name.(up|down).sql layout is an error.
func List(src fs.FS) ([]Entry, error) {
	files, err := fs.Glob(src, "*.sql")
	if err != nil {
		return nil, err
	}
	byVersion := make(map[uint64]*Entry)
	for _, file := range files {
		stem, direction, ok := cutDirection(file)
		if !ok {
			return nil, fmt.Errorf("%s: expected .up.sql or .down.sql", file)
		}
		v, name, ok := strings.Cut(stem, "_")
		if !ok {
			return nil, fmt.Errorf("%s: expected VERSION_name", file)
		}
		version, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: bad version: %w", file, err)
		}
		e, seen := byVersion[version]
		if !seen {
			e = &Entry{Version: version, Name: name}
			byVersion[version] = e
		} else if e.Name != name {
			return nil, fmt.Errorf("version %d used by %q and %q", version, e.Name, name)
		}
		if direction == "up" {
			e.HasUp = true
		} else {
			e.HasDown = true
		}
	}

	out := make([]Entry, 0, len(byVersion))
	for _, e := range byVersion {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
	return out, nil
}

func cutDirection(file string) (stem, direction string, ok bool) {
	if s, found := strings.CutSuffix(file, ".up.sql"); found {
		return s, "up", true
	}
	if s, found := strings.CutSuffix(file, ".down.sql"); found {
		return s, "down", true
	}
	return "", "", false
}
