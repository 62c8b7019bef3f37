package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Artifact name prefixes.
const (
	PrefixMatrix       = "matrix_agent"
	PrefixNative       = "native_agent"
	PrefixDiagnose     = "publish_diag"
	PrefixSignoff      = "release_signoff"
	PrefixSignoffError = "release_signoff_error"
	PrefixRecord       = "release_record"
	PrefixGap          = "native_id_gap"
	PrefixCrash        = "sitegate_error"
)

// TimestampLayout is the second-resolution suffix of every artifact name.
const TimestampLayout = "20060102_150405"

const maxCollisionSuffix = 1000

// ArtifactName returns <prefix>_<timestamp>.<ext>.
func ArtifactName(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format(TimestampLayout), strings.TrimPrefix(ext, "."))
}

// WriteArtifact writes data to a new timestamp-named file in dir. Existing
// artifacts are never overwritten; on a name collision a numeric suffix is
// appended.
func WriteArtifact(dir, prefix, ext string, data []byte, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	ext = strings.TrimPrefix(ext, ".")
	stamp := now.Format(TimestampLayout)
	for i := 0; i < maxCollisionSuffix; i++ {
		name := fmt.Sprintf("%s_%s.%s", prefix, stamp, ext)
		if i > 0 {
			name = fmt.Sprintf("%s_%s_%d.%s", prefix, stamp, i, ext)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create artifact: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to write artifact: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close artifact: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("too many artifacts named %s_%s in %s", prefix, stamp, dir)
}

// WriteJSON writes v as an indented JSON artifact.
func WriteJSON(dir, prefix string, v any, now time.Time) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode artifact: %w", err)
	}
	return WriteArtifact(dir, prefix, "json", append(data, '\n'), now)
}

// Save persists a finalized run report under dir using the prefix for its kind.
func Save(dir string, r RunReport) (string, error) {
	prefix := PrefixMatrix
	if r.Kind == KindNative {
		prefix = PrefixNative
	}
	now := r.FinishedAt
	if now.IsZero() {
		now = time.Now()
	}
	return WriteJSON(dir, prefix, r, now)
}

// Load reads a persisted run report.
func Load(path string) (RunReport, error) {
	var r RunReport
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("failed to read report: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return r, nil
}

// Latest returns the artifact in dir matching <prefix>_*.json with the most
// recent modification time. Ties are broken by the lexicographically greater
// name. ok is false when nothing matches.
func Latest(dir, prefix string) (path string, ok bool, err error) {
	return LatestAfter(dir, prefix, time.Time{})
}

// LatestAfter is Latest restricted to artifacts modified at or after t.
func LatestAfter(dir, prefix string, t time.Time) (path string, ok bool, err error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"_*.json"))
	if err != nil {
		return "", false, fmt.Errorf("invalid artifact pattern: %w", err)
	}

	var bestMod time.Time
	for _, m := range matches {
		// A longer prefix sharing this one (release_signoff vs
		// release_signoff_error) must not match.
		if !hasTimestampAfterPrefix(filepath.Base(m), prefix) {
			continue
		}
		info, statErr := os.Stat(m)
		if statErr != nil {
			if errors.Is(statErr, fs.ErrNotExist) {
				continue
			}
			return "", false, statErr
		}
		if info.IsDir() || info.ModTime().Before(t) {
			continue
		}
		mod := info.ModTime()
		switch {
		case !ok, mod.After(bestMod), mod.Equal(bestMod) && filepath.Base(m) > filepath.Base(path):
			path, bestMod, ok = m, mod, true
		}
	}
	return path, ok, nil
}

func hasTimestampAfterPrefix(name, prefix string) bool {
	rest, found := strings.CutPrefix(name, prefix+"_")
	if !found || rest == "" {
		return false
	}
	return rest[0] >= '0' && rest[0] <= '9'
}
