package serializers

import (
	"net/url"
	"strings"
)

// Media turns stored file references into client-facing URLs.
type Media struct {
	// BaseURL prefixes every relative reference, e.g. "https://cdn.example.com/media/".
	BaseURL string
}

// URL returns the URL of ref, or nil when nothing is stored. Absolute
// references are returned unchanged.
func (m Media) URL(ref string) *string {
	if ref == "" {
		return nil
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return &ref
	}
	if m.BaseURL == "" {
		u := "/" + strings.TrimLeft(ref, "/")
		return &u
	}
	u, err := url.JoinPath(m.BaseURL, ref)
	if err != nil {
		u = strings.TrimRight(m.BaseURL, "/") + "/" + strings.TrimLeft(ref, "/")
	}
	return &u
}
