// Package validation checks the URL-valued settings the service is
// configured with.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLError reports which setting carries an unusable URL.
type URLError struct {
	Setting string
	Reason  string
	URL     string
}

func (e URLError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Setting, e.Reason, e.URL)
}

// ServiceURL accepts an absolute http(s) URL with a host. A path prefix is
// allowed because upstream endpoints are joined onto it; a query string or
// fragment is not.
func ServiceURL(setting, raw string) error {
	u, err := parseHTTP(setting, raw)
	if err != nil {
		return err
	}
	if u.RawQuery != "" {
		return URLError{Setting: setting, Reason: "must not contain query parameters", URL: raw}
	}
	if u.Fragment != "" {
		return URLError{Setting: setting, Reason: "must not contain a fragment", URL: raw}
	}
	return nil
}

// PublicBaseURL accepts the origin the service's own pagination links are
// built from. Anything past the host other than "/" is rejected.
func PublicBaseURL(setting, raw string) error {
	u, err := parseHTTP(setting, raw)
	if err != nil {
		return err
	}
	if u.Path != "" && u.Path != "/" {
		return URLError{Setting: setting, Reason: "must not contain a path", URL: raw}
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return URLError{Setting: setting, Reason: "must not contain a query or fragment", URL: raw}
	}
	return nil
}

func parseHTTP(setting, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, URLError{Setting: setting, Reason: "invalid URL format", URL: raw}
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return nil, URLError{Setting: setting, Reason: "must include a scheme (http:// or https://)", URL: raw}
	default:
		return nil, URLError{Setting: setting, Reason: "scheme must be http or https", URL: raw}
	}
	if u.Host == "" {
		return nil, URLError{Setting: setting, Reason: "must include a host", URL: raw}
	}
	return u, nil
}
