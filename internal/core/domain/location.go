package domain

import "strings"

// Location is a browser-style location: path plus query string.
type Location struct {
	Path     string
	RawQuery string
}

// ParseLocation splits "path?query" into a Location. An empty path is "/".
func ParseLocation(s string) Location {
	path, query, _ := strings.Cut(s, "?")
	if path == "" {
		path = "/"
	} else if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return Location{Path: path, RawQuery: query}
}

// String returns the location as path[?query].
func (l Location) String() string {
	if l.RawQuery == "" {
		return l.Path
	}
	return l.Path + "?" + l.RawQuery
}

// BuildFullPath prefixes an application route with the base path the
// dashboard is served under. A base of "" or "/" leaves the route as is.
func BuildFullPath(base, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return path
	}
	return base + path
}

// Paths holds the application routes derived from the base path.
type Paths struct {
	Base  string
	Login string
	Root  string
}

// NewPaths derives the login and root routes for base.
func NewPaths(base string) Paths {
	return Paths{
		Base:  base,
		Login: BuildFullPath(base, "/login"),
		Root:  BuildFullPath(base, "/"),
	}
}

// IsLogin reports whether pathname (query ignored, one trailing slash
// ignored) is the login route.
func (p Paths) IsLogin(pathname string) bool {
	path, _, _ := strings.Cut(pathname, "?")
	return strings.TrimSuffix(path, "/") == strings.TrimSuffix(p.Login, "/")
}

// IsRoot reports whether pathname equals the normalized application root.
func (p Paths) IsRoot(pathname string) bool {
	path, _, _ := strings.Cut(pathname, "?")
	return sanitize(path) == sanitize(p.Root)
}

// ReturnPath returns the path+query to come back to after login, and false
// when loc is the login page or the application root.
func (p Paths) ReturnPath(loc Location) (string, bool) {
	if p.IsLogin(loc.Path) || p.IsRoot(loc.Path) {
		return "", false
	}
	return loc.String(), true
}

// sanitize strips one trailing slash, except from "/" itself.
func sanitize(path string) string {
	if path == "/" {
		return path
	}
	return strings.TrimSuffix(path, "/")
}
