package document

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DeriveFilename names the local copy of rawURL: the last path segment when
// it ends in ".pdf", otherwise the segment before it with ".pdf" appended.
// Query strings and fragments are ignored.
func DeriveFilename(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	if u, err := url.Parse(s); err == nil && u.Host != "" {
		s = u.Host + u.Path
	}
	parts := strings.Split(s, "/")
	name := parts[len(parts)-1]
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name = "document"
		if len(parts) >= 2 {
			name = parts[len(parts)-2]
		}
		name += ".pdf"
	}
	return sanitize(name)
}

func sanitize(name string) string {
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" || strings.EqualFold(name, "pdf") {
		return "document.pdf"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// uniqueName prefixes name with a short random id so concurrent requests for
// the same URL never share a local file.
func uniqueName(name string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:8] + "_" + name
}
