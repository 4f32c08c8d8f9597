package evidence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danielpatrickdp/hinteval/internal/feature"
)

// ErrMalformedEntry marks a task directory whose cached evidence cannot be
// parsed. Callers log and skip the task; the batch keeps going.
var ErrMalformedEntry = errors.New("evidence: malformed cache entry")

// #region source-keys

// Cache keys for the per-task evidence sources. Each key owns a
// <key>.json metadata file and, when the fetch produced content, a
// <key>.html capture next to it.
const (
	KeyResultIMDB   = "result_imdb"
	KeyResultGoogle = "result_google"
	KeyQueryIMDB    = "query_imdb"
	KeyQueryGoogle  = "query_google"
)

// AltKeys returns the cache keys of the alternative-candidate captures.
func AltKeys() []string {
	return []string{"alt_imdb_1", "alt_imdb_2", "alt_imdb_3"}
}

// #endregion source-keys

// #region source-meta

// SourceMeta mirrors the <key>.json metadata written by the collector.
type SourceMeta struct {
	InputURL       string `json:"input_url"`
	FinalURL       string `json:"final_url,omitempty"`
	Status         int    `json:"status,omitempty"`
	PageStatus     string `json:"page_status,omitempty"`
	Timestamp      string `json:"timestamp"`
	Error          string `json:"error,omitempty"`
	HTMLPath       string `json:"html_path,omitempty"`
	ScreenshotPath string `json:"screenshot_path,omitempty"`
}

// Availability is the derived state of one cached source.
type Availability string

const (
	SourceAvailable Availability = "available"
	SourceBlocked   Availability = "blocked"
	SourceMissing   Availability = "missing"
)

// #endregion source-meta

// #region source

// Source is one cached evidence page: its metadata and captured HTML.
type Source struct {
	Key  string
	Meta *SourceMeta
	HTML string
}

// Availability derives the source state: blocked beats available, and a
// source with no metadata or no HTML is missing.
func (s Source) Availability() Availability {
	if s.Meta == nil {
		return SourceMissing
	}
	if s.Meta.PageStatus == "blocked" {
		return SourceBlocked
	}
	if s.HTML == "" {
		return SourceMissing
	}
	return SourceAvailable
}

// #endregion source

// #region record

// Record is the full cached evidence for one task.
type Record struct {
	Task    feature.TaskInput
	Sources map[string]Source
}

// Source returns the source for key, or an empty missing source.
func (r Record) Source(key string) Source {
	if s, ok := r.Sources[key]; ok {
		return s
	}
	return Source{Key: key}
}

// #endregion record

// #region load

// LoadRecord reads one task directory into a Record. A missing or unreadable
// task.json is a malformed entry; individual evidence sources are allowed to
// be absent.
func LoadRecord(taskDir string) (Record, error) {
	taskPath := filepath.Join(taskDir, "task.json")
	data, err := os.ReadFile(taskPath)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformedEntry, taskPath, err)
	}
	var task feature.TaskInput
	if err := json.Unmarshal(data, &task); err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrMalformedEntry, taskPath, err)
	}
	if task.TaskID == "" {
		return Record{}, fmt.Errorf("%w: %s: empty task_id", ErrMalformedEntry, taskPath)
	}

	rec := Record{Task: task, Sources: make(map[string]Source)}
	keys := []string{KeyResultIMDB, KeyResultGoogle, KeyQueryIMDB, KeyQueryGoogle}
	keys = append(keys, AltKeys()...)
	for _, key := range keys {
		src := Source{Key: key}
		if meta, ok := loadMeta(taskDir, key); ok {
			src.Meta = meta
		}
		if html, ok := loadHTML(taskDir, key); ok {
			src.HTML = html
		}
		if src.Meta != nil || src.HTML != "" {
			rec.Sources[key] = src
		}
	}
	return rec, nil
}

// TaskDirs lists the task directories under cacheDir in sorted order, so
// batch extraction is deterministic.
func TaskDirs(cacheDir string) ([]string, error) {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("read cache dir %s: %w", cacheDir, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(cacheDir, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// TaskDir maps a task ID to its cache directory.
func TaskDir(cacheDir, taskID string) string {
	return filepath.Join(cacheDir, SafeFilename(taskID))
}

func loadMeta(taskDir, key string) (*SourceMeta, bool) {
	data, err := os.ReadFile(filepath.Join(taskDir, key+".json"))
	if err != nil {
		return nil, false
	}
	var meta SourceMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, false
	}
	return &meta, true
}

func loadHTML(taskDir, key string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(taskDir, key+".html"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// #endregion load

// #region safe-filename

// SafeFilename maps a task ID to a filesystem-safe directory name.
func SafeFilename(value string) string {
	var b strings.Builder
	for _, ch := range value {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		case ch == '-' || ch == '_' || ch == '.':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// #endregion safe-filename
