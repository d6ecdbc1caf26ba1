package domain

import (
	"net/url"
	"strings"
)

// LocatorKind is the shape of an input locator
type LocatorKind string

const (
	LocatorInvalid    LocatorKind = "invalid"
	LocatorSingle     LocatorKind = "single"
	LocatorCollection LocatorKind = "collection"
)

var watchHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
}

var shortHosts = map[string]bool{
	"youtu.be":     true,
	"www.youtu.be": true,
}

// ClassifyLocator decides from the locator's shape alone whether it references a
// single item, a collection, or nothing usable. Case-insensitive, never fails.
func ClassifyLocator(locator string) LocatorKind {
	raw := strings.ToLower(strings.TrimSpace(locator))
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return LocatorInvalid
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return LocatorInvalid
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return LocatorInvalid
	}

	host := u.Hostname()
	segments := pathSegments(u.Path)

	if shortHosts[host] {
		if len(segments) >= 1 && segments[0] != "" {
			return LocatorSingle
		}
		return LocatorInvalid
	}

	if !watchHosts[host] || len(segments) == 0 {
		return LocatorInvalid
	}

	switch segments[0] {
	case "watch":
		if u.Query().Get("v") != "" {
			return LocatorSingle
		}
	case "playlist":
		if u.Query().Get("list") != "" {
			return LocatorCollection
		}
	case "shorts", "live", "embed":
		if len(segments) >= 2 && segments[1] != "" {
			return LocatorSingle
		}
	}
	return LocatorInvalid
}

// ItemLocator builds the canonical single-item locator for an item id
func ItemLocator(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func pathSegments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
