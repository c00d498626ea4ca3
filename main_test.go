package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScene = `# Scene: Single Sphere
# Group: Basics
# Description: one sphere under a point light
LookAt 0 0 5  0 0 0  0 1 0
Camera "perspective" "float fov" 45
Film "image" "integer xresolution" 64 "integer yresolution" 48
WorldBegin
LightSource "point" "rgb I" [4 4 4] "point3 from" [0 3 0]
Material "matte" "rgb Kd" [0.5 0.5 0.5]
Shape "sphere" "float radius" 1
WorldEnd
`

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	noConfig := filepath.Join(t.TempDir(), "none.toml")
	err := app.Run(append([]string{"sceneio", "--config", noConfig}, args...))
	return out.String(), err
}

func writeScene(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(testScene), 0644))
	return path
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir, "sphere.pbrt")

	yamlOut := filepath.Join(dir, "out", "sphere.yaml")
	_, err := runApp(t, "convert", in, yamlOut)
	require.NoError(t, err)
	assert.FileExists(t, yamlOut)
	assert.FileExists(t, filepath.Join(dir, "out", "shapes", "shape_0.ply"))

	pbrtOut := filepath.Join(dir, "back.pbrt")
	_, err = runApp(t, "convert", yamlOut, pbrtOut)
	require.NoError(t, err)

	data, err := os.ReadFile(pbrtOut)
	require.NoError(t, err)
	assert.Contains(t, string(data), "WorldBegin")
	assert.Contains(t, string(data), `LightSource "point"`)
}

func TestConvertCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir, "sphere.pbrt")

	tests := []struct {
		name string
		args []string
	}{
		{"missing output", []string{"convert", in}},
		{"unknown input format", []string{"convert", filepath.Join(dir, "scene.obj"), filepath.Join(dir, "out.pbrt")}},
		{"unknown output format", []string{"convert", in, filepath.Join(dir, "out.obj")}},
		{"missing input", []string{"convert", filepath.Join(dir, "absent.pbrt"), filepath.Join(dir, "out.pbrt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runApp(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestInfoCommand(t *testing.T) {
	in := writeScene(t, t.TempDir(), "sphere.pbrt")

	out, err := runApp(t, "info", in)
	require.NoError(t, err)
	assert.Contains(t, out, in)
	assert.Contains(t, out, "Instances")
	assert.Contains(t, out, "Lights")

	_, err = runApp(t, "info")
	assert.Error(t, err)
}

func TestListCommand(t *testing.T) {
	dir := t.TempDir()
	writeScene(t, dir, "sphere.pbrt")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	out, err := runApp(t, "list", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Single Sphere")
	assert.Contains(t, out, "Basics")
	assert.NotContains(t, out, "notes")
}

func TestConfigOutputDir(t *testing.T) {
	dir := t.TempDir()
	in := writeScene(t, dir, "sphere.pbrt")
	outDir := filepath.Join(dir, "renders")
	cfgPath := filepath.Join(dir, "sceneio.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`output_dir = "`+filepath.ToSlash(outDir)+`"`+"\nexternal_meshes = true\n"), 0644))

	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"sceneio", "--config", cfgPath, "convert", in, "sphere.pbrt"})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "sphere.pbrt"))
	assert.FileExists(t, filepath.Join(outDir, "shapes", "shape_0.ply"))
}
