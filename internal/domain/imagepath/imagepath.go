// Package imagepath validates and resolves the image references carried by reports.
package imagepath

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultBase is where relative image paths are served from.
const DefaultBase = "/images/"

var filePattern = regexp.MustCompile(`(?i)^[\w\-./\\]+\.(jpg|jpeg|png|gif|webp)$`)

// hostSchemes are the web schemes that are not URLs without a host.
var hostSchemes = map[string]bool{
	"http": true, "https": true, "ftp": true, "ws": true, "wss": true,
}

// IsURL reports whether p parses as an absolute URL. Web schemes such as
// http also need a host, so "http://" is not a URL.
func IsURL(p string) bool {
	u, err := url.Parse(p)
	if err != nil || !u.IsAbs() {
		return false
	}
	if hostSchemes[strings.ToLower(u.Scheme)] {
		return u.Host != ""
	}
	return true
}

// Valid accepts absolute URLs and file paths ending in a supported image extension.
func Valid(p string) bool {
	if IsURL(p) {
		return true
	}
	return filePattern.MatchString(p)
}

// Resolve maps p to the URL a viewer should load. Absolute URLs are returned
// unchanged; anything else is joined onto base. It returns "" when no URL can
// be built, in which case the caller shows a placeholder.
func Resolve(p, base string) string {
	if p == "" {
		return ""
	}
	if IsURL(p) {
		return p
	}
	if base == "" {
		base = DefaultBase
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimPrefix(strings.ReplaceAll(p, `\`, "/"), "/"))
	if err != nil {
		return ""
	}
	if !strings.HasSuffix(b.Path, "/") {
		b.Path += "/"
	}
	return b.ResolveReference(ref).String()
}
