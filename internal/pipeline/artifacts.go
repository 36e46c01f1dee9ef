package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"graft/internal/logging"
)

// writeArtifact serializes one pipeline artifact under the configured
// artifact directory. Best effort: a write failure is logged and the run
// continues, since artifacts are an inspection surface, not a contract.
func (p *Pipeline) writeArtifact(root, name string, v interface{}) {
	if !p.cfg.Artifact.Enabled {
		return
	}

	dir := filepath.Join(root, p.cfg.Artifact.Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.PipelineWarn("artifact dir not created: %v", err)
		return
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logging.PipelineWarn("artifact %s not serialized: %v", name, err)
		return
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		logging.PipelineWarn("artifact %s not written: %v", name, err)
		return
	}
	logging.Pipeline("artifact written: %s", path)
}
