package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chazu/lodsmith/pkg/kernel"
	"github.com/chazu/lodsmith/pkg/mesh"
)

// readMesh loads a JSON kernel.Mesh and converts it to a working mesh.
func readMesh(path string) (*mesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var km kernel.Mesh
	if err := json.Unmarshal(data, &km); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	m, err := mesh.FromKernel(&km)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// writeMesh stores m as JSON, creating parent directories.
func writeMesh(path, name string, m *mesh.Mesh) error {
	data, err := json.Marshal(m.ToKernel(name))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func levelPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("lod%d.json", index))
}
