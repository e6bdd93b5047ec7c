// Package storage provides the persisted key-value context the interaction
// store writes through. The context is a durable get/set region scoped to
// either the current workspace or the user's home directory, backed by SQLite
// or Pebble.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scope selects which physical region a context lives in.
type Scope string

const (
	ScopeWorkspace Scope = "workspace"
	ScopeGlobal    Scope = "global"
)

func (s Scope) IsValid() bool {
	return s == ScopeWorkspace || s == ScopeGlobal
}

// Backend names a key-value engine.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendPebble Backend = "pebble"
)

func (b Backend) IsValid() bool {
	return b == BackendSQLite || b == BackendPebble
}

// Context is the persisted key-value region the interaction store owns.
// Get returns (nil, nil) when the key is absent; Set is durable before it
// returns.
type Context interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Close() error
}

// Dir resolves the data directory for a scope. Workspace scope keeps records
// next to the project; global scope survives across workspaces.
func Dir(scope Scope, workspaceDir string) (string, error) {
	switch scope {
	case ScopeWorkspace:
		if workspaceDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return "", fmt.Errorf("resolve workspace dir: %w", err)
			}
			workspaceDir = wd
		}
		return filepath.Join(workspaceDir, ".parley"), nil
	case ScopeGlobal:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		return filepath.Join(home, ".parley"), nil
	default:
		return "", fmt.Errorf("unknown storage scope %q", scope)
	}
}

// Open creates the data directory if needed and opens the configured backend
// under it.
func Open(backend Backend, dir string) (Context, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	switch backend {
	case BackendSQLite:
		return OpenSQLite(filepath.Join(dir, "interactions.db"))
	case BackendPebble:
		return OpenPebble(filepath.Join(dir, "pebble"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
