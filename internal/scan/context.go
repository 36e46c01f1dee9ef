// Package scan walks a project tree, runs the syntax front-end over every
// source file, and builds the module index and dependency graph the rest of
// the pipeline reads.
package scan

import (
	"fmt"
	"sort"

	"graft/internal/syntax"
)

// ModuleRecord is the parsed structural summary of one source file.
// Records are created once by the scanner and read-only afterwards.
type ModuleRecord struct {
	// Path is the canonical repo-relative module key (no extension,
	// forward slashes, package __init__ collapsed to its directory).
	Path string `json:"path"`
	// File is the repo-relative source file path.
	File string `json:"file"`
	// Tree is the front-end's parse result.
	Tree *syntax.Tree `json:"-"`

	ClassNames    []string `json:"class_names"`
	FunctionNames []string `json:"function_names"`
	Imports       []string `json:"imports"`

	// Lines holds the raw file lines for the marker scan.
	Lines []string `json:"-"`
}

// ParseFailure records one excluded file.
type ParseFailure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// AnalysisContext is the module index built during scanning. It is mutable
// only inside the scanner; Seal makes it read-only before it is handed to
// any later phase.
type AnalysisContext struct {
	root     string
	modules  map[string]*ModuleRecord
	failures []ParseFailure
	sealed   bool
}

// NewAnalysisContext creates an empty, unsealed context.
func NewAnalysisContext(root string) *AnalysisContext {
	return &AnalysisContext{
		root:    root,
		modules: make(map[string]*ModuleRecord),
	}
}

// Root returns the scanned project root.
func (c *AnalysisContext) Root() string { return c.root }

// Add indexes a module record. It fails once the context is sealed.
func (c *AnalysisContext) Add(rec *ModuleRecord) error {
	if c.sealed {
		return fmt.Errorf("analysis context is sealed")
	}
	c.modules[rec.Path] = rec
	return nil
}

// AddFailure records an excluded file. It fails once the context is sealed.
func (c *AnalysisContext) AddFailure(file, reason string) error {
	if c.sealed {
		return fmt.Errorf("analysis context is sealed")
	}
	c.failures = append(c.failures, ParseFailure{File: file, Reason: reason})
	return nil
}

// Seal makes the context read-only.
func (c *AnalysisContext) Seal() {
	if c.sealed {
		return
	}
	sort.Slice(c.failures, func(i, j int) bool { return c.failures[i].File < c.failures[j].File })
	c.sealed = true
}

// Sealed reports whether the context has been sealed.
func (c *AnalysisContext) Sealed() bool { return c.sealed }

// Module returns the record for a canonical key, nil if absent.
func (c *AnalysisContext) Module(key string) *ModuleRecord {
	return c.modules[key]
}

// Keys returns all module keys in sorted order. Sorting here is what makes
// every downstream pass deterministic regardless of scan completion order.
func (c *AnalysisContext) Keys() []string {
	keys := make([]string, 0, len(c.modules))
	for k := range c.modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of indexed modules.
func (c *AnalysisContext) Len() int { return len(c.modules) }

// Failures returns the per-file parse failures, sorted by file.
func (c *AnalysisContext) Failures() []ParseFailure { return c.failures }
