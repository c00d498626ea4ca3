package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/df07/go-sceneio/pkg/config"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchScene = `WorldBegin
Material "matte"
Shape "sphere" "float radius" 1
WorldEnd
`

func TestWatchReconverts(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "scene.pbrt")
	out := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(in, []byte(watchScene), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	converted := make(chan error, 8)
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, in, out, config.Default(), converted)
	}()

	select {
	case err := <-converted:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("initial conversion did not run")
	}
	assert.FileExists(t, out)

	broken := watchScene + "WorldEnd\n"
	require.NoError(t, os.WriteFile(in, []byte(broken), 0644))

	select {
	case err := <-converted:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a conversion")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestRelevant(t *testing.T) {
	out, err := filepath.Abs("out.pbrt")
	require.NoError(t, err)

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"scene write", fsnotify.Event{Name: "in.pbrt", Op: fsnotify.Write}, true},
		{"mesh create", fsnotify.Event{Name: "shapes/a.PLY", Op: fsnotify.Create}, true},
		{"yaml rename", fsnotify.Event{Name: "in.yml", Op: fsnotify.Rename}, true},
		{"chmod", fsnotify.Event{Name: "in.pbrt", Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}, false},
		{"own output", fsnotify.Event{Name: "out.pbrt", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.event, out))
		})
	}
}

func TestOutputPath(t *testing.T) {
	cfg := config.Config{OutputDir: "renders"}

	got, err := outputPath("a.pbrt", cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("renders", "a.pbrt"), got)

	abs := filepath.Join(t.TempDir(), "a.pbrt")
	got, err = outputPath(abs, cfg)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	got, err = outputPath("a.pbrt", config.Config{})
	require.NoError(t, err)
	assert.Equal(t, "a.pbrt", got)
}
