package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"graft/internal/config"
	"graft/internal/logging"
	"graft/internal/syntax"
)

// Scanner builds the module index for a project tree. Each matching file is
// parsed independently by a bounded worker pool; a single malformed file is
// never fatal to the run.
type Scanner struct {
	cfg *config.Config

	// Tree-sitter parsers are not safe for concurrent use, so each worker
	// checks one out of the pool.
	frontends sync.Pool
}

// NewScanner creates a scanner using the given configuration.
func NewScanner(cfg *config.Config) *Scanner {
	return &Scanner{
		cfg: cfg,
		frontends: sync.Pool{
			New: func() interface{} { return syntax.NewFrontend() },
		},
	}
}

// Scan walks root and returns a sealed AnalysisContext. The only error it
// returns is a failed walk of the root itself; per-file parse failures are
// recorded on the context and the file excluded.
func (s *Scanner) Scan(ctx context.Context, root string) (*AnalysisContext, error) {
	timer := logging.StartTimer(logging.CategoryScan, "Workspace scan")
	defer timer.StopWithInfo()

	actx := NewAnalysisContext(root)
	skip := make(map[string]bool, len(s.cfg.Scan.SkipDirs))
	for _, d := range s.cfg.Scan.SkipDirs {
		skip[d] = true
	}

	var mu sync.Mutex // protects actx while unsealed
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.cfg.Scan.Workers)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return err
		}

		if info.IsDir() {
			name := info.Name()
			if path != root && (skip[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.matchesExtension(path) {
			return nil
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)

			rec, parseErr := s.scanFile(ctx, path, rel)

			mu.Lock()
			defer mu.Unlock()
			if parseErr != nil {
				logging.ScanWarn("excluding %s: %v", rel, parseErr)
				_ = actx.AddFailure(rel, parseErr.Error())
				return
			}
			_ = actx.Add(rec)
		}(path)

		return nil
	})

	wg.Wait()
	if err != nil {
		return nil, err
	}

	actx.Seal()
	logging.Scan("scanned %s: %d modules indexed, %d files excluded",
		root, actx.Len(), len(actx.Failures()))
	return actx, nil
}

func (s *Scanner) matchesExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range s.cfg.Scan.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// scanFile parses one file and builds its ModuleRecord.
func (s *Scanner) scanFile(ctx context.Context, absPath, relPath string) (*ModuleRecord, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	fe := s.frontends.Get().(*syntax.Frontend)
	defer s.frontends.Put(fe)

	tree, err := fe.Parse(ctx, relPath, content)
	if err != nil {
		return nil, err
	}

	rec := &ModuleRecord{
		Path:  CanonicalKey(relPath),
		File:  relPath,
		Tree:  tree,
		Lines: strings.Split(string(content), "\n"),
	}
	for _, cl := range tree.Classes {
		rec.ClassNames = append(rec.ClassNames, cl.Name)
	}
	for _, fn := range tree.Functions {
		rec.FunctionNames = append(rec.FunctionNames, fn.Name)
	}
	for _, imp := range tree.Imports {
		rec.Imports = append(rec.Imports, imp.Target)
	}
	return rec, nil
}
