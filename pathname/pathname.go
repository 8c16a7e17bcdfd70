// Package pathname implements the path/name value type path resolution is
// built on: an immutable byte-slice path plus the component splitting
// namev_dir and namev_open walk.
package pathname

import "strings"

/// Path is an immutable slash-separated path, mirroring the teacher's
/// Ustr byte-slice path type.
type Path []byte

/// Mk wraps a Go string as a Path.
func Mk(s string) Path {
	return Path(s)
}

/// MkRoot returns the Path "/".
func MkRoot() Path {
	return Path("/")
}

/// String renders the Path as a Go string.
func (p Path) String() string {
	return string(p)
}

/// Isdot reports whether p is exactly ".".
func (p Path) Isdot() bool {
	return len(p) == 1 && p[0] == '.'
}

/// Isdotdot reports whether p is exactly "..".
func (p Path) Isdotdot() bool {
	return len(p) == 2 && p[0] == '.' && p[1] == '.'
}

/// Eq reports whether p and o contain identical bytes.
func (p Path) Eq(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

/// IsAbsolute reports whether p begins with '/'.
func (p Path) IsAbsolute() bool {
	return len(p) > 0 && p[0] == '/'
}

/// Extend appends '/' and comp to p and returns the result.
func (p Path) Extend(comp Path) Path {
	out := make(Path, 0, len(p)+1+len(comp))
	out = append(out, p...)
	out = append(out, '/')
	out = append(out, comp...)
	return out
}

/// ExtendStr is Extend for a plain Go string component.
func (p Path) ExtendStr(comp string) Path {
	return p.Extend(Path(comp))
}

/// Components splits p into its non-empty slash-separated components;
/// consecutive separators collapse and a trailing slash is dropped,
/// except that it is reported separately via TrailingSlash so callers can
/// enforce namev_open's "must resolve to a directory" rule.
func (p Path) Components() []Path {
	parts := strings.Split(string(p), "/")
	out := make([]Path, 0, len(parts))
	for _, c := range parts {
		if c == "" {
			continue
		}
		out = append(out, Path(c))
	}
	return out
}

/// TrailingSlash reports whether p ends in '/' after at least one
/// non-separator byte, which namev_open treats as "this must be a
/// directory".
func (p Path) TrailingSlash() bool {
	trimmed := strings.TrimRight(string(p), "/")
	return trimmed != string(p) && trimmed != ""
}

/// Dirname splits p into (all-but-last-component, last-component); used by
/// namev_dir. The basename is empty and ok is false for an empty path.
func Dirname(p Path) (dir Path, base Path, ok bool) {
	comps := p.Components()
	if len(comps) == 0 {
		return nil, nil, false
	}
	base = comps[len(comps)-1]
	prefix := ""
	if p.IsAbsolute() {
		prefix = "/"
	}
	dir = Path(prefix + strings.Join(joinStrings(comps[:len(comps)-1]), "/"))
	return dir, base, true
}

func joinStrings(ps []Path) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}
