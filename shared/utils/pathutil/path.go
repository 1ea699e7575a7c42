package pathutil

import (
	"strings"
	"unicode"
)

// Separator joins path segments; RootMarker is the conventional first
// segment of every stored location path.
const (
	Separator  = "."
	RootMarker = "root"
)

// MaxDepth and MaxChildren are the hierarchy limits validated before
// any path mutation is applied.
const (
	MaxDepth    = 5
	MaxChildren = 100
)

// transliterations maps the supported Latin-extended diacritics to
// their ASCII base letters. Characters outside this table pass through
// unchanged.
var transliterations = map[rune]rune{
	'ą': 'a', 'ć': 'c', 'ę': 'e', 'ł': 'l', 'ń': 'n',
	'ó': 'o', 'ś': 's', 'ź': 'z', 'ż': 'z',
	'Ą': 'a', 'Ć': 'c', 'Ę': 'e', 'Ł': 'l', 'Ń': 'n',
	'Ó': 'o', 'Ś': 's', 'Ź': 'z', 'Ż': 'z',
}

// SanitizeSegment turns a location name into a path segment restricted
// to [a-z0-9_]. The transform is total and deterministic but not
// injective: distinct names may collapse to the same segment, so
// sibling uniqueness has to be enforced by the caller.
func SanitizeSegment(name string) string {
	var b strings.Builder
	pendingUnderscore := false

	for _, r := range name {
		if repl, ok := transliterations[r]; ok {
			r = repl
		}
		r = unicode.ToLower(r)

		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingUnderscore && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingUnderscore = false
			b.WriteRune(r)
			continue
		}

		// Any run of other characters, underscores included, collapses
		// to a single separator underscore.
		pendingUnderscore = true
	}

	return b.String()
}

// BuildPath appends the sanitized segment for name under parentPath.
// An empty parentPath means a root-level location.
func BuildPath(parentPath, name string) string {
	segment := SanitizeSegment(name)
	if segment == "" {
		segment = "unnamed"
	}

	if parentPath == "" {
		return RootMarker + Separator + segment
	}
	return parentPath + Separator + segment
}

// ReplacePrefix rewrites path when its ancestor chain changes from
// oldPrefix to newPrefix. Paths outside the oldPrefix subtree are
// returned unchanged.
func ReplacePrefix(path, oldPrefix, newPrefix string) string {
	if path == oldPrefix {
		return newPrefix
	}
	if strings.HasPrefix(path, oldPrefix+Separator) {
		return newPrefix + path[len(oldPrefix):]
	}
	return path
}

// SubtreePattern builds a LIKE pattern matching every strict descendant
// of path. Underscores are literal characters in stored segments but
// single-character wildcards to LIKE, so the prefix is escaped; queries
// using the pattern must carry an ESCAPE '\' clause.
func SubtreePattern(path string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(path)
	return escaped + Separator + "%"
}

// Depth returns the number of segments below the root marker
func Depth(path string) int {
	if path == "" || path == RootMarker {
		return 0
	}
	return strings.Count(path, Separator)
}

// Breadcrumb renders a stored path for display. An absent path means
// the entity is not placed anywhere; a root-only path is the top level.
func Breadcrumb(path string) string {
	if path == "" {
		return "Unassigned"
	}

	segments := strings.Split(path, Separator)
	if len(segments) > 0 && segments[0] == RootMarker {
		segments = segments[1:]
	}
	if len(segments) == 0 {
		return "Root"
	}
	return strings.Join(segments, " > ")
}
