package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"mediahub/internal/logging"
	"mediahub/internal/metrics"
	"mediahub/internal/resource"
)

// ErrScanRunning is returned when a scan is requested while one is running.
var ErrScanRunning = errors.New("library scan already running")

const defaultScanConcurrency = 4

// Result summarises one scan.
type Result struct {
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Folders  int           `json:"folders"`
	Files    int           `json:"files"`
	Valid    int           `json:"valid"`
	Invalid  int           `json:"invalid"`
	Skipped  int           `json:"skipped"`
	Errors   []string      `json:"errors,omitempty"`
}

// Scanner resolves every recognised file under the shared folders.
type Scanner struct {
	folders     []string
	deps        *resource.Deps
	gate        *ScanGate
	concurrency int
	logger      *slog.Logger
	metrics     *metrics.Metrics
	onComplete  func(context.Context, Result)

	mu   sync.Mutex
	last *Result
}

// ScannerOption customizes a Scanner.
type ScannerOption func(*Scanner)

// WithConcurrency bounds how many files are resolved at once.
func WithConcurrency(n int) ScannerOption {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithGate shares gate with enrichment workers.
func WithGate(gate *ScanGate) ScannerOption {
	return func(s *Scanner) {
		if gate != nil {
			s.gate = gate
		}
	}
}

// WithCompletionHook registers fn to run after every scan that was not
// cancelled. fn runs on the scanning goroutine.
func WithCompletionHook(fn func(context.Context, Result)) ScannerOption {
	return func(s *Scanner) {
		s.onComplete = fn
	}
}

// NewScanner builds a scanner over folders.
func NewScanner(folders []string, deps *resource.Deps, logger *slog.Logger, m *metrics.Metrics, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		folders:     append([]string(nil), folders...),
		deps:        deps,
		gate:        NewScanGate(),
		concurrency: defaultScanConcurrency,
		logger:      logging.NewComponentLogger(logger, "library"),
		metrics:     m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Gate returns the gate held during scans.
func (s *Scanner) Gate() *ScanGate {
	return s.gate
}

// Running reports whether a scan is in progress.
func (s *Scanner) Running() bool {
	return s.gate.Held()
}

// LastResult returns the most recent completed scan.
func (s *Scanner) LastResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	out := *s.last
	out.Errors = append([]string(nil), s.last.Errors...)
	return out, true
}

// Scan walks every shared folder once. Only one scan runs at a time.
func (s *Scanner) Scan(ctx context.Context) (Result, error) {
	if !s.gate.Hold() {
		return Result{}, ErrScanRunning
	}
	defer s.gate.Release()

	result := Result{Started: time.Now()}
	var valid, invalid atomic.Int64
	var errMu sync.Mutex
	addError := func(msg string) {
		errMu.Lock()
		result.Errors = append(result.Errors, msg)
		errMu.Unlock()
	}

	s.logger.Info("library scan started", logging.Int("folders", len(s.folders)))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, folder := range s.folders {
		info, err := os.Stat(folder)
		if err != nil || !info.IsDir() {
			logging.WarnWithContext(s.logger, "shared folder unavailable", "shared_folder_missing",
				logging.Path(folder),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.shared_folders"),
				logging.String(logging.FieldImpact, "files in this folder are not served"),
			)
			addError(fmt.Sprintf("folder %s unavailable", folder))
			continue
		}
		result.Folders++
		walkErr := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				addError(fmt.Sprintf("walk %s: %v", path, err))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if hidden(d.Name()) && path != folder {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if s.deps.Registry.Match(d.Name()) == nil {
				result.Skipped++
				return nil
			}
			result.Files++
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				rf := resource.NewRealFile(path, s.deps)
				if rf.IsValid(gctx) {
					valid.Add(1)
				} else {
					invalid.Add(1)
				}
				return nil
			})
			return nil
		})
		if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
			addError(fmt.Sprintf("walk %s: %v", folder, walkErr))
		}
	}
	_ = g.Wait()

	result.Valid = int(valid.Load())
	result.Invalid = int(invalid.Load())
	result.Duration = time.Since(result.Started)
	s.metrics.ScanFinished(result.Files, result.Duration)

	if err := ctx.Err(); err != nil {
		s.logger.Info("library scan cancelled", logging.Int("files", result.Files))
		return result, err
	}
	s.mu.Lock()
	stored := result
	s.last = &stored
	s.mu.Unlock()

	s.logger.Info("library scan finished",
		logging.Int("files", result.Files),
		logging.Int("valid", result.Valid),
		logging.Int("invalid", result.Invalid),
		logging.Int("skipped", result.Skipped),
		logging.Duration("elapsed", result.Duration),
	)
	if s.onComplete != nil {
		s.onComplete(ctx, result)
	}
	return result, nil
}

// ResolveFile resolves and validates one file outside of a scan.
func (s *Scanner) ResolveFile(ctx context.Context, path string) (*resource.RealFile, bool) {
	rf := resource.NewRealFile(path, s.deps)
	return rf, rf.IsValid(ctx)
}

// Contains reports whether path lies inside a shared folder.
func (s *Scanner) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, folder := range s.folders {
		rel, err := filepath.Rel(folder, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
