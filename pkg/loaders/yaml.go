package loaders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/df07/go-sceneio/pkg/scene"
	"gopkg.in/yaml.v3"
)

// yamlScene is the on-disk layout of a YAML scene file
type yamlScene struct {
	Format      string `yaml:"format"`
	scene.Scene `yaml:",inline"`
}

const yamlFormat = "sceneio/1"

// SaveYAML writes the scene as YAML. Mesh geometry is stored in PLY files
// next to it, and shapes reference them by URI.
func SaveYAML(filename string, sc *scene.Scene) error {
	dir := filepath.Dir(filename)

	out := *sc
	out.Shapes = make([]scene.Shape, len(sc.Shapes))
	for i := range sc.Shapes {
		shape := sc.Shapes[i]
		if len(shape.Positions) > 0 {
			uri := meshPath(&shape)
			path := filepath.Join(dir, filepath.FromSlash(uri))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create mesh directory: %w", err)
			}
			if err := SavePLY(path, &shape); err != nil {
				return fmt.Errorf("failed to save shape %s: %w", shape.Name, err)
			}
			shape.URI = uri
		}
		out.Shapes[i] = shape
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create scene file: %w", err)
	}
	if err := WriteYAML(file, &out); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteYAML encodes the scene records. Shape geometry is not included.
func WriteYAML(w io.Writer, sc *scene.Scene) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlScene{Format: yamlFormat, Scene: *sc}); err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}
	return enc.Close()
}

// ReadYAML decodes scene records. Unknown fields are an error.
func ReadYAML(r io.Reader) (*scene.Scene, error) {
	doc := yamlScene{Scene: *scene.NewScene()}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc.Scene, nil
		}
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}
	if doc.Format != "" && doc.Format != yamlFormat {
		return nil, fmt.Errorf("unsupported scene format %q", doc.Format)
	}
	return &doc.Scene, nil
}

// LoadYAML reads a YAML scene and loads the meshes it references
func LoadYAML(filename string) (*scene.Scene, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	sc, err := ReadYAML(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	err = sc.LoadAssets(context.Background(), scene.AssetOptions{
		Dir:    filepath.Dir(filename),
		Meshes: PLYMeshLoader{},
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}
