package collate

import (
	"path/filepath"
	"strings"
)

// ToUnix renders a native path in the platform-neutral slash form used for
// table of contents fields and Accessor keys.
//
// The path is cleaned first, so "a//b/./c" and "a/b/c" render identically.
// The empty string stays empty.
func ToUnix(p string) string {
	if p == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(p))
}

// FromUnix converts a slash-form path to the native form.
func FromUnix(p string) string {
	return filepath.FromSlash(p)
}

// Components splits a slash-form path into its components.
//
// Empty segments are dropped, so repeated and trailing slashes do not add
// components. A leading slash is kept as its own "/" component so absolute
// and relative paths never compare equal. "" and "." have no components.
func Components(p string) []string {
	var parts []string
	if strings.HasPrefix(p, "/") {
		parts = append(parts, "/")
	}
	for _, part := range strings.Split(p, "/") {
		if part != "" && part != "." {
			parts = append(parts, part)
		}
	}
	return parts
}

// resourceKey returns the Accessor key for a native resource path.
func resourceKey(p string) string {
	return ToUnix(p)
}
