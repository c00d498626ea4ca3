package cmd

import (
	"errors"

	"github.com/df07/go-sceneio/pkg/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// ListScenes prints the scene files found in a directory, grouped by the
// Group key of their header comments.
func ListScenes(ctx *cli.Context) error {
	if _, err := setup(ctx); err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return errors.New("list expects a single directory")
	}

	scenes, err := scene.ListScenes(ctx.Args().First())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetAutoFormatHeaders(false)
	table.SetAutoMergeCells(true)
	table.SetHeader([]string{"Group", "Scene", "Format", "Description"})
	for _, group := range scene.GroupScenes(scenes) {
		for _, info := range group.Scenes {
			table.Append([]string{group.Name, info.DisplayName, info.Format, info.Description})
		}
	}
	table.Render()
	return nil
}
