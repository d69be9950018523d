package http

import "strings"

// absURL joins a configured public base URL and a path. Without a base the
// path is returned as is.
func absURL(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		return path
	}
	return base + path
}
