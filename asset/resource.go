package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Resource wraps a streamable local file or remote object. World files
// and palettes are opened through it so commands accept either a path
// or an http/https URL.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Path returns the location this resource was opened from.
func (r *Resource) Path() string {
	return r.url.String()
}

// Name returns the base name of the resource, without any directory or
// URL prefix.
func (r *Resource) Name() string {
	return filepath.Base(r.url.Path)
}

// IsRemote reports whether the resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a resource data stream. If relTo is given and location does not
// define a scheme, the location is resolved relative to relTo's
// directory, so files referenced from inside a world file load from the
// same place the world file came from.
//
// The caller must close the returned resource.
func Open(location string, relTo *Resource) (*Resource, error) {
	url, err := url.Parse(strings.ReplaceAll(location, `\`, `/`))
	if err != nil {
		return nil, err
	}

	if url.Scheme == "" && relTo != nil {
		path := url.Path
		url, _ = url.Parse(relTo.url.String())
		prefix := url.Path
		if url.Scheme == "" {
			prefix, err = filepath.Abs(relTo.url.String())
			if err != nil {
				return nil, fmt.Errorf("asset: could not resolve path for %s: %v", relTo.url.String(), err)
			}
		}
		url.Path = filepath.Dir(prefix) + "/" + path
	}

	var reader io.ReadCloser
	switch url.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(url.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(url.String())
		if err != nil {
			return nil, fmt.Errorf("asset: could not fetch '%s': %v", url.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("asset: could not fetch '%s': status %d", url.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("asset: unsupported scheme '%s'", url.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        url,
	}, nil
}

// FromStream wraps an in-memory reader as a named resource.
func FromStream(name string, source io.Reader) *Resource {
	url, _ := url.Parse(name)
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        url,
	}
}
