package opencorporates

import (
	"fmt"
	"net/url"
)

// utf8Marker is the literal value of the utf8 parameter the site's own
// search form submits.
const utf8Marker = "✓"

// SearchURL builds the company search URL for name. Spaces become "+" and
// reserved characters such as "&" are percent-encoded.
func SearchURL(baseURL, name string) string {
	return baseURL + "companies?q=" + url.QueryEscape(name) + "&utf8=" + utf8Marker
}

// SignInURL is the account sign-in page.
func SignInURL(baseURL string) string {
	return baseURL + "users/sign_in"
}

// resolveLink turns a result link's href into an absolute URL.
func resolveLink(baseURL, href string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse result link %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}
