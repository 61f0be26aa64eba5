// Package thumb derives downscaled preview URLs through an external image
// proxy. Pure string transformation; no I/O happens here.
package thumb

import (
	"net/url"
	"strconv"
)

// Config describes the thumbnail proxy endpoint and the rendition to ask
// it for.
type Config struct {
	// BaseURL of the proxy, e.g. "https://wsrv.nl". Empty disables
	// previews: PreviewURL returns the input untouched.
	BaseURL string
	Width   int
	Quality int
}

// PreviewURL returns the proxy URL for a downscaled rendition of rawURL.
func (c Config) PreviewURL(rawURL string) string {
	if c.BaseURL == "" {
		return rawURL
	}
	q := url.Values{}
	q.Set("url", rawURL)
	if c.Width > 0 {
		q.Set("w", strconv.Itoa(c.Width))
	}
	if c.Quality > 0 {
		q.Set("q", strconv.Itoa(c.Quality))
	}
	return c.BaseURL + "/?" + q.Encode()
}
