package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"graft/internal/config"
	"graft/internal/logging"
	"graft/internal/plan"
)

// Scaffolder materializes an integration plan under the project root.
type Scaffolder struct {
	root     string
	cfg      *config.ScaffoldConfig
	renderer Renderer
}

// NewScaffolder creates a scaffolder rooted at the project directory.
func NewScaffolder(root string, cfg *config.ScaffoldConfig, renderer Renderer) *Scaffolder {
	return &Scaffolder{root: root, cfg: cfg, renderer: renderer}
}

// Apply creates the fixed directory skeleton and renders one stub per
// REST-like interface in the plan. Directory creation is idempotent; a
// failed render skips that one stub and scaffolding continues.
func (s *Scaffolder) Apply(p *plan.IntegrationPlan) error {
	timer := logging.StartTimer(logging.CategoryScaffold, "Scaffold apply")
	defer timer.StopWithInfo()

	for _, dir := range s.cfg.Directories {
		path := filepath.Join(s.root, dir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create scaffold directory %s: %w", dir, err)
		}
	}
	logging.Scaffold("ensured %d scaffold directories", len(s.cfg.Directories))

	rendered := 0
	for _, iface := range p.Interfaces {
		if iface.Kind != plan.KindRESTLike {
			continue
		}
		if err := s.renderStub(iface); err != nil {
			logging.ScaffoldWarn("skipping stub for %s: %v", iface.Name, err)
			continue
		}
		rendered++
	}
	logging.Scaffold("rendered %d interface stubs", rendered)
	return nil
}

func (s *Scaffolder) renderStub(iface plan.Interface) error {
	data := map[string]interface{}{
		"Name":     iface.Name,
		"FuncName": snakeCase(iface.Name) + "_adapter",
		"Methods":  iface.Methods,
		"Provider": iface.ProviderModule,
	}
	text, err := s.renderer.Render("rest_adapter", data)
	if err != nil {
		return err
	}

	path := filepath.Join(s.root, s.cfg.StubDir, snakeCase(iface.Name)+"_adapter.py")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}

var nonIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// snakeCase flattens an interface name into a safe file/function stem.
func snakeCase(name string) string {
	out := strings.ToLower(strings.TrimSpace(name))
	out = nonIdent.ReplaceAllString(out, "_")
	out = strings.Trim(out, "_")
	if out == "" {
		out = "stub"
	}
	return out
}
