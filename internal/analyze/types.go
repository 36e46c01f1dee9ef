// Package analyze runs the feature extractors over the sealed module index:
// endpoint detection, persisted-model extraction, tech-debt assessment,
// integration point identification and test coverage correlation.
package analyze

import (
	"graft/internal/scan"
)

// ApiEndpoint is one HTTP-style handler surface.
type ApiEndpoint struct {
	Module   string   `json:"module"`
	Function string   `json:"function"`
	Methods  []string `json:"methods"` // matched verb tags, decorator order, deduplicated
}

// ModelField is one persisted column on a model class.
type ModelField struct {
	Name         string `json:"name"`
	DeclaredType string `json:"declared_type"` // "Unknown" when not determinable
}

// DatabaseModel is one persisted-entity class shape.
type DatabaseModel struct {
	Module    string       `json:"module"`
	ClassName string       `json:"class_name"`
	Fields    []ModelField `json:"fields"`
}

// DebtKind tags a TechDebtItem variant.
type DebtKind string

const (
	DebtMarker     DebtKind = "marker"
	DebtComplexity DebtKind = "complexity"
)

// TechDebtItem is a tagged union: a marker comment (Line/Text set) or a
// high-complexity function (Function/Score set).
type TechDebtItem struct {
	Kind     DebtKind `json:"kind"`
	Module   string   `json:"module"`
	Line     int      `json:"line,omitempty"`
	Text     string   `json:"text,omitempty"`
	Function string   `json:"function,omitempty"`
	Score    int      `json:"score,omitempty"`
}

// IntegrationPoint is a candidate seam for wiring in the new subsystem.
type IntegrationPoint struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Kind   string `json:"kind"` // "class" or "hook"
}

// CoverageSummary correlates test files back to target modules.
type CoverageSummary struct {
	TestFileCount      int                 `json:"test_file_count"`
	TestFunctionCount  int                 `json:"test_function_count"`
	ModulesWithTests   int                 `json:"modules_with_tests"`
	ModulesWithoutTest int                 `json:"modules_without_tests"`
	TestsByModule      map[string][]string `json:"tests_by_module"`
}

// Result aggregates everything the extractors produce. It is passed by
// reference into the plan builder and never mutated after analysis.
type Result struct {
	Context *scan.AnalysisContext `json:"-"`
	Graph   *scan.DependencyGraph `json:"-"`

	Modules  []string `json:"modules"`
	Failures int      `json:"parse_failures"`

	Endpoints         []ApiEndpoint      `json:"endpoints"`
	Models            []DatabaseModel    `json:"models"`
	Debt              []TechDebtItem     `json:"debt"`
	IntegrationPoints []IntegrationPoint `json:"integration_points"`
	Coverage          CoverageSummary    `json:"coverage"`
}
