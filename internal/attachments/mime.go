// Package attachments holds the small glue around ask_user attachments:
// MIME-type detection for rendering them in the review UI.
package attachments

import (
	"mime"
	"path/filepath"
	"strings"
)

// Extensions the platform mime table tends to miss but dev-tool attachments
// use constantly.
var extraTypes = map[string]string{
	".md":   "text/markdown",
	".go":   "text/x-go",
	".ts":   "text/typescript",
	".tsx":  "text/typescript",
	".jsx":  "text/javascript",
	".yaml": "text/yaml",
	".yml":  "text/yaml",
	".toml": "text/toml",
	".log":  "text/plain",
	".diff": "text/x-diff",
}

// DetectMime returns the MIME type for an attachment name based on its
// extension, falling back to application/octet-stream.
func DetectMime(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return "application/octet-stream"
	}
	if t, ok := extraTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// Strip charset parameters; callers want the bare type.
		if i := strings.Index(t, ";"); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return t
	}
	return "application/octet-stream"
}
