package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SceneInfo represents a discovered scene file with its header metadata
type SceneInfo struct {
	Name        string // Scene name
	DisplayName string // Name plus variant
	Description string // Optional description
	Group       string // Grouping category
	Format      string // "pbrt" or "yaml"
	FilePath    string
	Variant     string // Variant name (optional)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string
	Scenes []SceneInfo
}

// sceneFormats maps recognised file extensions to format names
var sceneFormats = map[string]string{
	".pbrt": "pbrt",
	".yaml": "yaml",
	".yml":  "yaml",
}

// FormatOf returns the scene format for a file name, or "" when unknown
func FormatOf(filename string) string {
	return sceneFormats[strings.ToLower(filepath.Ext(filename))]
}

// ListScenes scans dir for scene files and returns them sorted by display name
func ListScenes(dir string) ([]SceneInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var scenes []SceneInfo
	for _, entry := range entries {
		if entry.IsDir() || FormatOf(entry.Name()) == "" {
			continue
		}
		info, err := ParseSceneMetadata(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// GroupScenes groups scenes by their Group field, groups sorted by name
func GroupScenes(scenes []SceneInfo) []SceneGroup {
	groupMap := make(map[string][]SceneInfo)
	for _, info := range scenes {
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	names := make([]string, 0, len(groupMap))
	for name := range groupMap {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]SceneGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, SceneGroup{Name: name, Scenes: groupMap[name]})
	}
	return groups
}

// ParseSceneMetadata extracts metadata from the leading comment block of a
// scene file. Recognised keys are Scene, Variant, Description and Group.
func ParseSceneMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		Name:     titleCase(nameWithoutExt),
		Group:    "Scenes",
		Format:   FormatOf(filePath),
		FilePath: filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		return info, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			break
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		key, value, found := strings.Cut(content, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Scene":
			info.Name = value
		case "Variant":
			info.Variant = value
		case "Description":
			info.Description = value
		case "Group":
			info.Group = value
		}
	}

	if info.Variant != "" {
		info.DisplayName = fmt.Sprintf("%s - %s", info.Name, info.Variant)
	} else {
		info.DisplayName = info.Name
	}

	return info, scanner.Err()
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-empty" -> "Cornell Empty"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}
