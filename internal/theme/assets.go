package theme

import (
	"encoding/base64"
	"io/fs"
	"regexp"
	"strings"
)

// urlRefPattern matches url(...) references in a stylesheet, capturing the
// target with optional surrounding quotes stripped.
var urlRefPattern = regexp.MustCompile(`url\(\s*['"]?([^'")]+?)['"]?\s*\)`)

// InlineAssets rewrites relative local url(...) references in css so the
// stylesheet renders identically regardless of the browser's working
// directory. Each relative reference is resolved against base inside fsys
// and, when the target exists, embedded as a base64 data: URI. Absolute
// paths, data: URIs, and remote references are left untouched, as are
// references whose target cannot be read.
func InlineAssets(css string, fsys fs.FS, base string) string {
	return urlRefPattern.ReplaceAllStringFunc(css, func(match string) string {
		sub := urlRefPattern.FindStringSubmatch(match)
		ref := strings.TrimSpace(sub[1])
		if !isLocalRelative(ref) {
			return match
		}

		data, err := fs.ReadFile(fsys, joinFS(base, ref))
		if err != nil {
			return match
		}

		encoded := base64.StdEncoding.EncodeToString(data)
		return "url(data:" + mimeForAsset(ref) + ";base64," + encoded + ")"
	})
}

// isLocalRelative reports whether ref is a relative filesystem reference
// that should be inlined. Already-embedded, remote, and absolute references
// are the rendering engine's problem, not ours.
func isLocalRelative(ref string) bool {
	switch {
	case ref == "":
		return false
	case strings.HasPrefix(ref, "data:"):
		return false
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return false
	case strings.HasPrefix(ref, "//"):
		return false
	case strings.HasPrefix(ref, "/"):
		return false
	case strings.HasPrefix(ref, "file:"):
		return false
	}
	return true
}

// mimeForAsset maps an asset reference to a MIME type by extension.
func mimeForAsset(ref string) string {
	// Fragment/query parts never reach the filesystem lookup, but keep the
	// extension mapping tolerant of them anyway.
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	lower := strings.ToLower(ref)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".woff"):
		return "font/woff"
	case strings.HasSuffix(lower, ".woff2"):
		return "font/woff2"
	case strings.HasSuffix(lower, ".ttf"):
		return "font/ttf"
	default:
		return "application/octet-stream"
	}
}
