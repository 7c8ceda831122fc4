package youtube

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a URL matches neither YouTube URL form.
var ErrInvalidURL = errors.New("invalid YouTube URL")

var longFormHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
}

// ExtractIdentifier returns the video identifier carried by a YouTube URL.
//
// Short links (youtu.be/<id>) yield the last path segment. Long links
// (youtube.com/watch?v=<id>&...) yield the v parameter up to the next '&'.
// Any other host is rejected.
func ExtractIdentifier(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", ErrInvalidURL
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}

	var id string
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "youtu.be":
		id = u.Path[strings.LastIndex(u.Path, "/")+1:]
	case longFormHosts[host]:
		id = queryParam(u.RawQuery, "v")
	default:
		return "", ErrInvalidURL
	}

	if id == "" || strings.ContainsAny(id, " /") {
		return "", ErrInvalidURL
	}
	return id, nil
}

// queryParam returns the raw value of key, cut at the next '&'.
func queryParam(rawQuery, key string) string {
	prefix := key + "="
	for _, part := range strings.Split(rawQuery, "&") {
		if value, ok := strings.CutPrefix(part, prefix); ok {
			return value
		}
	}
	return ""
}
