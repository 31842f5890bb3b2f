package util

import (
	"net/url"
	"strings"
)

// dealabsDomains lists domains where NormalizeURL forces HTTPS and strips tracking parameters.
var dealabsDomains = []string{
	"dealabs.com",
	"www.dealabs.com",
}

func isDealabsDomain(host string) bool {
	for _, d := range dealabsDomains {
		if host == d {
			return true
		}
	}
	return false
}

// NormalizeURL canonicalizes Dealabs thread links so that the same thread
// always maps to the same string. Other hosts are returned unchanged.
func NormalizeURL(rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, err
	}

	if !isDealabsDomain(parsedURL.Hostname()) {
		return rawURL, nil
	}

	parsedURL.Scheme = "https"
	parsedURL.Host = "www.dealabs.com"
	parsedURL.Fragment = ""
	if len(parsedURL.Path) > 1 && strings.HasSuffix(parsedURL.Path, "/") {
		parsedURL.Path = parsedURL.Path[:len(parsedURL.Path)-1]
		// Clear RawPath to ensure String() regenerates the URL path without the trailing slash
		parsedURL.RawPath = ""
	}
	queryParams := parsedURL.Query()
	trackingParams := []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "source", "hide_expired"}
	for _, param := range trackingParams {
		queryParams.Del(param)
	}
	parsedURL.RawQuery = queryParams.Encode()
	return parsedURL.String(), nil
}
