// Package paths resolves FEP's on-disk layout, adapted from the teacher's
// Windows Program Files/ProgramData convention
// (internal/platform/paths/paths.go) to the XDG base-directory convention
// fepd actually runs under.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultConfigRoot = "/etc/fep"
	DefaultDataRoot   = "/var/lib/fep"
)

// ResolveConfigRoot returns the directory fepd looks in for its
// configuration file by default.
func ResolveConfigRoot() string {
	if root := os.Getenv("FEP_CONFIG_ROOT"); root != "" {
		return root
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fep")
	}
	return DefaultConfigRoot
}

// ResolveDataRoot returns the directory fepd writes its JSONL audit trail
// and other runtime state under.
func ResolveDataRoot() string {
	if root := os.Getenv("FEP_DATA_ROOT"); root != "" {
		return root
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "fep")
	}
	return DefaultDataRoot
}

// ResolveConfigPath returns the absolute path to the configuration file,
// honoring an explicit override.
func ResolveConfigPath(customPath string) string {
	if customPath != "" {
		return customPath
	}
	return filepath.Join(ResolveConfigRoot(), "fep.yaml")
}

// ResolveAuditDir returns the directory the JSONL audit sink writes to.
func ResolveAuditDir() string {
	return filepath.Join(ResolveDataRoot(), "audit")
}

// EnsureDirs creates the standard FEP data subdirectories if they don't
// exist.
func EnsureDirs() error {
	dataRoot := ResolveDataRoot()
	subdirs := []string{"audit", "tmp"}

	for _, sub := range subdirs {
		path := filepath.Join(dataRoot, sub)
		if err := os.MkdirAll(path, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}
	return nil
}

// SafeJoin joins path elements under base and ensures the result stays
// within base (no traversal).
func SafeJoin(base string, elements ...string) (string, error) {
	for _, el := range elements {
		if filepath.IsAbs(el) {
			return "", fmt.Errorf("path traversal attempt detected: absolute path not allowed in elements: %s", el)
		}
	}
	joined := filepath.Join(append([]string{base}, elements...)...)

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absJoined, absBase) {
		return "", fmt.Errorf("path traversal attempt detected: %s is outside %s", absJoined, absBase)
	}
	return absJoined, nil
}
