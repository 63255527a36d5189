package alarm

import "strings"

// PathSeparator separates names inside an entity path.
const PathSeparator = "/"

// JoinPath builds an entity path from its names, skipping empty elements.
func JoinPath(names ...string) string {
	parts := make([]string, 0, len(names))

	for _, name := range names {
		name = strings.Trim(name, PathSeparator)
		if name == "" {
			continue
		}

		parts = append(parts, name)
	}

	return strings.Join(parts, PathSeparator)
}

// ParentPath returns the path without its last element, or "" for a root path.
func ParentPath(path string) string {
	idx := strings.LastIndex(path, PathSeparator)
	if idx < 0 {
		return ""
	}

	return path[:idx]
}

// BaseName returns the last element of a path.
func BaseName(path string) string {
	return path[strings.LastIndex(path, PathSeparator)+1:]
}
