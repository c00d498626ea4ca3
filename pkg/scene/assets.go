package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MeshLoader reads shape geometry from a mesh file
type MeshLoader interface {
	LoadMesh(path string) (*Shape, error)
}

// ImageProber reads the resolution of an image file without keeping pixels
type ImageProber interface {
	ProbeImage(path string) (width, height int, err error)
}

// AssetOptions controls LoadAssets
type AssetOptions struct {
	Dir     string      // base directory for relative URIs
	Meshes  MeshLoader  // nil skips mesh loading
	Images  ImageProber // nil skips texture probing
	Workers int         // defaults to runtime.NumCPU()
}

// LoadAssets resolves external files referenced by the scene: shapes that
// have a URI but no geometry are loaded with Meshes, and image textures get
// their resolution from Images. Files are processed concurrently; each
// goroutine writes only to its own slice element.
func (s *Scene) LoadAssets(ctx context.Context, opts AssetOptions) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	if opts.Meshes != nil {
		for i := range s.Shapes {
			shape := &s.Shapes[i]
			if shape.URI == "" || len(shape.Positions) > 0 {
				continue
			}
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				loaded, err := opts.Meshes.LoadMesh(resolvePath(opts.Dir, shape.URI))
				if err != nil {
					return fmt.Errorf("failed to load shape %s: %w", shape.Name, err)
				}
				shape.Positions = loaded.Positions
				shape.Normals = loaded.Normals
				shape.TexCoords = loaded.TexCoords
				shape.Triangles = loaded.Triangles
				return nil
			})
		}
	}

	if opts.Images != nil {
		for i := range s.Textures {
			texture := &s.Textures[i]
			if texture.URI == "" {
				continue
			}
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				width, height, err := opts.Images.ProbeImage(resolvePath(opts.Dir, texture.URI))
				if err != nil {
					return fmt.Errorf("failed to load texture %s: %w", texture.Name, err)
				}
				texture.Width, texture.Height = width, height
				return nil
			})
		}
	}

	return g.Wait()
}

func resolvePath(dir, uri string) string {
	if dir == "" || filepath.IsAbs(uri) {
		return uri
	}
	return filepath.Join(dir, uri)
}
