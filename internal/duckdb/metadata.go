package duckdb

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FileFingerprint is the stat-based identity of a source file. A cached
// artifact is reused only while every source it was built from keeps its
// fingerprint.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// sources names the files a cached artifact was built from.
type sources map[string]FileFingerprint

// entries returns the "<name>_size" and "<name>_modtime" keys of every source.
func (s sources) entries() map[string]string {
	m := make(map[string]string, 2*len(s))
	for name, fp := range s {
		m[name+"_size"] = strconv.FormatInt(fp.Size, 10)
		m[name+"_modtime"] = fp.ModTime.UTC().Format(time.RFC3339Nano)
	}
	return m
}

// matches reports whether meta was written for exactly these fingerprints.
func (s sources) matches(meta map[string]string) bool {
	for k, v := range s.entries() {
		if meta[k] != v {
			return false
		}
	}
	return true
}

// writeMeta writes the fingerprints as sorted key=value lines.
func writeMeta(path string, s sources) error {
	entries := s.entries()
	entries["created_at"] = time.Now().UTC().Format(time.RFC3339)

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k + "=" + entries[k] + "\n")
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

func readMeta(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}
