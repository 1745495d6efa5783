package directory

import (
	"strings"
)

// Split returns non-empty components of the slash-separated path.
func Split(path string) []string {
	var res []string

	for _, name := range strings.Split(path, "/") {
		if name != "" {
			res = append(res, name)
		}
	}

	return res
}

// SplitLast splits path into the parent directory path and the last
// component. The last component is empty for the root path.
func SplitLast(path string) (string, string) {
	names := Split(path)
	if len(names) == 0 {
		return "/", ""
	}

	return "/" + strings.Join(names[:len(names)-1], "/"), names[len(names)-1]
}

// Clean returns canonical form of the path: leading slash, no empty
// components and no trailing slash.
func Clean(path string) string {
	return "/" + strings.Join(Split(path), "/")
}

// Contains checks whether path is inside of dir or equals it.
func Contains(dir, path string) bool {
	dir, path = Clean(dir), Clean(path)
	if dir == "/" {
		return true
	}

	return path == dir || strings.HasPrefix(path, dir+"/")
}
