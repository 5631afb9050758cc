package extractor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Crate is the package a source file belongs to.
type Crate struct {
	Name string // identifier form, dashes replaced by underscores
	Root string // directory holding Cargo.toml
}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// LoadCrate reads the [package] name from a Cargo.toml. ok is false for
// manifests without a [package] table, such as virtual workspaces.
func LoadCrate(manifestPath string) (Crate, bool, error) {
	var m cargoManifest
	meta, err := toml.DecodeFile(manifestPath, &m)
	if err != nil {
		return Crate{}, false, fmt.Errorf("%s: failed to parse TOML: %w", manifestPath, err)
	}
	if !meta.IsDefined("package", "name") {
		return Crate{}, false, nil
	}
	name := strings.ReplaceAll(strings.TrimSpace(m.Package.Name), "-", "_")
	return Crate{Name: name, Root: filepath.Dir(manifestPath)}, true, nil
}

// FindCrate walks up from dir to the nearest Cargo.toml that declares a package.
func FindCrate(dir string) (Crate, bool, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return Crate{}, false, err
	}
	for {
		manifest := filepath.Join(dir, "Cargo.toml")
		if _, err := os.Stat(manifest); err == nil {
			c, ok, err := LoadCrate(manifest)
			if err != nil || ok {
				return c, ok, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Crate{}, false, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Crate{}, false, nil
		}
		dir = parent
	}
}

// ModulePathFor maps a file to the modules its location implies:
// src/lib.rs -> [], src/a/b.rs -> [a b], src/a/mod.rs -> [a].
// Binaries and files outside src/ (tests, examples, benches) are crate roots.
func ModulePathFor(crateRoot, path string) []string {
	if crateRoot == "" {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	rel, err := filepath.Rel(crateRoot, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 || parts[0] != "src" || parts[1] == "bin" {
		return nil
	}
	parts = parts[1:]

	last := strings.TrimSuffix(parts[len(parts)-1], ".rs")
	parts = parts[:len(parts)-1]
	switch last {
	case "lib", "main", "mod":
	default:
		parts = append(parts, last)
	}
	if len(parts) == 0 {
		return nil
	}
	return parts
}
