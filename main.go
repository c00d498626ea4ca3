package main

import (
	"fmt"
	"os"

	"github.com/df07/go-sceneio/cmd"
	"github.com/df07/go-sceneio/pkg/config"
	"github.com/urfave/cli"
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "sceneio"
	app.Usage = "read, convert and inspect pbrt-style scene files"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Value: config.DefaultPath,
			Usage: "TOML settings file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "convert",
			Usage: "convert a scene between the pbrt and yaml formats",
			Description: `
Read a scene file, resolve the meshes and textures it references and write it
in the format given by the output file extension (.pbrt, .yaml or .yml).

Mesh geometry is written to PLY files under shapes/ next to the output.`,
			ArgsUsage: "input output",
			Action:    cmd.ConvertScene,
		},
		{
			Name:      "info",
			Usage:     "print entity counts for scene files",
			ArgsUsage: "scene_file1 scene_file2 ...",
			Action:    cmd.ShowSceneInfo,
		},
		{
			Name:      "list",
			Usage:     "list the scene files in a directory",
			ArgsUsage: "dir",
			Action:    cmd.ListScenes,
		},
		{
			Name:      "watch",
			Usage:     "convert a scene again whenever its files change",
			ArgsUsage: "input output",
			Action:    cmd.WatchScene,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
