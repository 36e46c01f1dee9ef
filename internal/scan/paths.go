package scan

import (
	"path/filepath"
	"strings"
)

// CanonicalKey maps a repo-relative source file path to its module key.
// "pkg/mod.py" -> "pkg/mod"; the package form "pkg/__init__.py" collapses
// to "pkg" so dotted imports of the package resolve to the same key.
func CanonicalKey(relFile string) string {
	key := filepath.ToSlash(relFile)
	key = strings.TrimSuffix(key, filepath.Ext(key))
	key = strings.TrimSuffix(key, "/__init__")
	if key == "__init__" {
		key = ""
	}
	return key
}

// NormalizeImport maps a raw import target into the module key space.
// Dotted logical paths become slash paths ("app.models" -> "app/models").
// Relative imports (leading dot) cannot be anchored without the importing
// module's package, so they normalize to "" and stay unresolved; this is
// the documented under-resolution of exact-match semantics.
func NormalizeImport(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, ".") {
		return ""
	}
	return strings.ReplaceAll(raw, ".", "/")
}
