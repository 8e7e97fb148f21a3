// Package theme locates named CSS styling bundles and prepares them for
// rendering. A theme is either a flat file <name>.css or a directory <name>
// containing theme.css (plus optional image assets and a theme.yaml
// manifest). User override directories are searched before the built-ins
// shipped inside the binary.
package theme

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"git.home.luguber.info/inful/framecast/internal/errors"
)

//go:embed builtin
var builtinFS embed.FS

// builtinRoot is the subtree of builtinFS holding the shipped themes.
const builtinRoot = "builtin"

// Theme is a resolved styling bundle, immutable for the duration of a render.
type Theme struct {
	Name        string
	CSS         string // post-processed stylesheet, local assets inlined
	DisplayName string
	Description string
}

// Resolver searches user override directories, then the built-in themes.
type Resolver struct {
	overrideDirs []string
}

// NewResolver returns a Resolver that consults the given override
// directories (missing ones are skipped) before the embedded built-ins.
func NewResolver(overrideDirs ...string) *Resolver {
	return &Resolver{overrideDirs: overrideDirs}
}

// Resolve locates the theme by name and returns its post-processed CSS.
// Relative local asset references in the stylesheet are inlined as data:
// URIs so the rendering engine can load them regardless of working
// directory. Unknown names yield a theme-category error.
func (r *Resolver) Resolve(name string) (*Theme, error) {
	for _, dir := range r.overrideDirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if t, ok, err := lookupIn(os.DirFS(dir), ".", name); err != nil {
			return nil, err
		} else if ok {
			return t, nil
		}
	}

	if t, ok, err := lookupIn(builtinFS, builtinRoot, name); err != nil {
		return nil, err
	} else if ok {
		return t, nil
	}

	return nil, errors.ThemeError(fmt.Sprintf("theme not found: %s", name))
}

// List returns all resolvable theme names with manifest info, overrides
// shadowing built-ins of the same name. Names are sorted.
func (r *Resolver) List() ([]*Theme, error) {
	seen := map[string]*Theme{}

	collect := func(fsys fs.FS, root string) error {
		names, err := enumerate(fsys, root)
		if err != nil {
			return err
		}
		for _, name := range names {
			if _, dup := seen[name]; dup {
				continue
			}
			t, ok, err := lookupIn(fsys, root, name)
			if err != nil || !ok {
				continue
			}
			seen[name] = t
		}
		return nil
	}

	for _, dir := range r.overrideDirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := collect(os.DirFS(dir), "."); err != nil {
			return nil, err
		}
	}
	if err := collect(builtinFS, builtinRoot); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	themes := make([]*Theme, 0, len(names))
	for _, name := range names {
		themes = append(themes, seen[name])
	}
	return themes, nil
}

// lookupIn tries <root>/<name>/theme.css first, then <root>/<name>.css.
// ok is false when the name does not exist in this location.
func lookupIn(fsys fs.FS, root, name string) (*Theme, bool, error) {
	entry := joinFS(root, name, "theme.css")
	base := joinFS(root, name)
	raw, err := fs.ReadFile(fsys, entry)
	if err != nil {
		entry = joinFS(root, name+".css")
		base = root
		raw, err = fs.ReadFile(fsys, entry)
		if err != nil {
			return nil, false, nil
		}
	}

	t := &Theme{
		Name:        name,
		CSS:         InlineAssets(string(raw), fsys, base),
		DisplayName: name,
	}
	loadManifest(fsys, joinFS(root, name), t)
	return t, true, nil
}

// enumerate lists candidate theme names in one search location.
func enumerate(fsys fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read theme directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			if _, err := fs.Stat(fsys, joinFS(root, e.Name(), "theme.css")); err == nil {
				names = append(names, e.Name())
			}
			continue
		}
		if n, found := cutSuffix(e.Name(), ".css"); found {
			names = append(names, n)
		}
	}
	return names, nil
}

func cutSuffix(s, suffix string) (string, bool) {
	if len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)], true
	}
	return s, false
}

// joinFS joins fs.FS path elements, treating "." as the root.
func joinFS(elems ...string) string {
	out := ""
	for _, e := range elems {
		if e == "" || e == "." {
			continue
		}
		if out == "" {
			out = e
			continue
		}
		out += "/" + e
	}
	if out == "" {
		return "."
	}
	return out
}
