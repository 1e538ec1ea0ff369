package kvo

import "strings"

// splitPath parses a dotted path into its segments. A leading "this." is
// stripped as a synonym for a leading ".".
func splitPath(path string) ([]string, error) {
	p := path
	switch {
	case strings.HasPrefix(p, "this."):
		p = p[len("this."):]
	case strings.HasPrefix(p, "."):
		p = p[1:]
	}
	if p == "" {
		return nil, ErrMalformedPath
	}
	segments := strings.Split(p, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, ErrMalformedPath
		}
	}
	return segments, nil
}

// isGlobalPath reports whether path's root segment names a process-wide
// global rather than being rooted at "this": an absolute path is deferred
// to the ObserverQueue until the name resolves. By convention a
// global-rooted path's first character is uppercase.
func isGlobalPath(path string) bool {
	if path == "" {
		return false
	}
	if strings.HasPrefix(path, "*") || strings.HasPrefix(path, ".") || strings.HasPrefix(path, "this.") {
		return false
	}
	first := path[0]
	return first >= 'A' && first <= 'Z'
}
