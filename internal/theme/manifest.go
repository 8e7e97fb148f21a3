package theme

import (
	"io/fs"

	"gopkg.in/yaml.v3"
)

// manifest is the optional theme.yaml next to a directory theme's
// stylesheet. Flat .css themes have no manifest.
type manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// loadManifest fills display metadata from dir/theme.yaml when present.
// A malformed manifest is ignored; the theme still resolves.
func loadManifest(fsys fs.FS, dir string, t *Theme) {
	data, err := fs.ReadFile(fsys, joinFS(dir, "theme.yaml"))
	if err != nil {
		return
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return
	}
	if m.Name != "" {
		t.DisplayName = m.Name
	}
	t.Description = m.Description
}
