package crawler

import "net/url"

// IsValidURL reports whether raw parses as an absolute URL with both a scheme
// and a host.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// APIURL joins the project API base with an extracted key. The API expects a
// trailing slash after the key.
func APIURL(base, key string) string {
	return base + key + "/"
}
