package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/df07/go-sceneio/pkg/config"
	"github.com/df07/go-sceneio/pkg/loaders"
	"github.com/df07/go-sceneio/pkg/scene"
	"github.com/urfave/cli"
)

// loadScene reads a scene file of either format and resolves its assets as
// the config asks.
func loadScene(ctx context.Context, path string, cfg config.Config) (*scene.Scene, error) {
	start := time.Now()

	var sc *scene.Scene
	var err error
	switch scene.FormatOf(path) {
	case "pbrt":
		sc, err = loaders.ReadPBRTScene(path, loaders.Options{
			KeepConstantTextures: cfg.KeepConstantTextures,
			Logger:               logger,
		})
	case "yaml":
		sc, err = loaders.LoadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported scene file %s", path)
	}
	if err != nil {
		return nil, err
	}

	opts := scene.AssetOptions{Dir: filepath.Dir(path), Workers: cfg.Workers}
	if cfg.LoadMeshes {
		opts.Meshes = loaders.PLYMeshLoader{Logger: logger}
	}
	if cfg.LoadTextures {
		opts.Images = loaders.ImageProbe{}
	}
	if err := sc.LoadAssets(ctx, opts); err != nil {
		return nil, err
	}

	logger.Infof("loaded %s in %v", path, time.Since(start))
	return sc, nil
}

// saveScene writes sc in the format implied by the file extension
func saveScene(path string, sc *scene.Scene, cfg config.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	switch scene.FormatOf(path) {
	case "pbrt":
		if cfg.ExternalMeshes {
			return loaders.SavePBRT(path, sc)
		}
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create scene file: %w", err)
		}
		if err := loaders.WritePBRT(file, sc, loaders.WriteOptions{}); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	case "yaml":
		return loaders.SaveYAML(path, sc)
	}
	return fmt.Errorf("unsupported scene file %s", path)
}

// outputPath places relative output names under the configured output dir
func outputPath(path string, cfg config.Config) (string, error) {
	dir, err := cfg.OutputPath()
	if err != nil || dir == "" || filepath.IsAbs(path) {
		return path, err
	}
	return filepath.Join(dir, path), nil
}

func convert(in, out string, cfg config.Config) error {
	sc, err := loadScene(context.Background(), in, cfg)
	if err != nil {
		return err
	}
	if err := saveScene(out, sc, cfg); err != nil {
		return err
	}
	logger.Noticef("wrote %s", out)
	return nil
}

// ConvertScene converts a scene file between formats
func ConvertScene(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if ctx.NArg() != 2 {
		return errors.New("convert expects an input and an output scene file")
	}

	out, err := outputPath(ctx.Args().Get(1), cfg)
	if err != nil {
		return err
	}
	return convert(ctx.Args().First(), out, cfg)
}

// ShowSceneInfo prints entity counts for each scene file given
func ShowSceneInfo(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if ctx.NArg() == 0 {
		return errors.New("missing scene file")
	}

	for _, path := range ctx.Args() {
		sc, err := loadScene(context.Background(), path, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(ctx.App.Writer, "%s\n%s", path, sc.StatsTable())
	}
	return nil
}
