package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mover-brief/internal/domain"
)

const (
	windowFile  = "evaluation_history.json"
	summaryFile = "performance_metrics.json"

	// DefaultWindowSize bounds the persisted result log; the oldest entry
	// is evicted once the window is full. Running averages are never
	// affected by eviction.
	DefaultWindowSize = 100
)

// Store is the append-only bounded log of evaluation results plus the
// all-time running average per metric. Both halves are persisted as separate
// JSON artifacts and reloaded on startup. The evaluation job is the single
// writer; the mutex exists because HTTP handlers read concurrently.
type Store struct {
	mu         sync.Mutex
	dir        string
	windowSize int
	window     []domain.EvaluationResult
	averages   map[string]domain.RunningAverage
}

// NewStore opens (or creates) the history directory and loads both
// artifacts. A corrupt or missing artifact is treated as empty history: the
// corrupt file is renamed aside for forensics rather than overwritten.
func NewStore(dir string, windowSize int) (*Store, error) {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	s := &Store{
		dir:        dir,
		windowSize: windowSize,
		averages:   emptyAverages(),
	}

	if err := loadJSON(filepath.Join(dir, windowFile), &s.window); err != nil {
		log.Printf("history window unreadable, starting fresh: %v", err)
		s.window = nil
	}
	if len(s.window) > windowSize {
		s.window = s.window[len(s.window)-windowSize:]
	}

	var summary map[string]domain.RunningAverage
	if err := loadJSON(filepath.Join(dir, summaryFile), &summary); err != nil {
		log.Printf("performance summary unreadable, starting fresh: %v", err)
	} else if summary != nil {
		for _, name := range domain.MetricNames {
			if avg, ok := summary[name]; ok {
				s.averages[name] = avg
			}
		}
	}

	return s, nil
}

// Append inserts the result at the tail, evicting the oldest entry once the
// window is full, folds its metrics into the running averages, and persists
// both artifacts. On persistence failure the in-memory state is rolled back
// so a failed append leaves the store untouched.
func (s *Store) Append(result domain.EvaluationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevWindow := s.window
	prevAverages := s.averages

	s.window = append(append([]domain.EvaluationResult(nil), s.window...), result)
	if len(s.window) > s.windowSize {
		s.window = s.window[len(s.window)-s.windowSize:]
	}

	next := make(map[string]domain.RunningAverage, len(s.averages))
	for name, avg := range s.averages {
		next[name] = avg
	}
	next[domain.MetricAccuracy] = next[domain.MetricAccuracy].Add(result.Accuracy)
	next[domain.MetricPrecision] = next[domain.MetricPrecision].Add(result.Precision)
	next[domain.MetricRecall] = next[domain.MetricRecall].Add(result.Recall)
	next[domain.MetricF1Score] = next[domain.MetricF1Score].Add(result.F1Score)
	s.averages = next

	if err := s.persist(); err != nil {
		s.window = prevWindow
		s.averages = prevAverages
		return err
	}
	return nil
}

// Window returns a copy of the bounded result log, oldest first.
func (s *Store) Window() []domain.EvaluationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.EvaluationResult(nil), s.window...)
}

// RunningAverages returns a copy of the per-metric all-time averages.
func (s *Store) RunningAverages() map[string]domain.RunningAverage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.RunningAverage, len(s.averages))
	for name, avg := range s.averages {
		out[name] = avg
	}
	return out
}

// SampleSize returns the number of evaluations ever folded in.
func (s *Store) SampleSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.averages[domain.MetricAccuracy].Count
}

func (s *Store) persist() error {
	windowTmp, err := writeTemp(s.dir, windowFile, s.window)
	if err != nil {
		return err
	}
	summaryTmp, err := writeTemp(s.dir, summaryFile, s.averages)
	if err != nil {
		os.Remove(windowTmp)
		return err
	}

	if err := os.Rename(windowTmp, filepath.Join(s.dir, windowFile)); err != nil {
		os.Remove(windowTmp)
		os.Remove(summaryTmp)
		return fmt.Errorf("replace history window: %w", err)
	}
	if err := os.Rename(summaryTmp, filepath.Join(s.dir, summaryFile)); err != nil {
		os.Remove(summaryTmp)
		return fmt.Errorf("replace performance summary: %w", err)
	}
	return nil
}

func writeTemp(dir, name string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	f, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp for %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return f.Name(), nil
}

// loadJSON decodes path into v. Missing files are fine (empty history).
// Corrupt files are renamed aside, preserved for inspection.
func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		quarantine := fmt.Sprintf("%s.corrupt.%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, quarantine); renameErr != nil {
			log.Printf("failed to quarantine corrupt artifact %s: %v", path, renameErr)
		} else {
			log.Printf("quarantined corrupt artifact %s -> %s", path, quarantine)
		}
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func emptyAverages() map[string]domain.RunningAverage {
	out := make(map[string]domain.RunningAverage, len(domain.MetricNames))
	for _, name := range domain.MetricNames {
		out[name] = domain.RunningAverage{}
	}
	return out
}
