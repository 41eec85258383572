// Package registry resolves semantic version ranges of packages to concrete
// versions using an npm-compatible package registry.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/ty-ras/start/internal/output"
)

const (
	// DefaultURL is the public npm registry.
	DefaultURL = "https://registry.npmjs.org"

	// abbreviatedAccept requests the abbreviated packument.
	abbreviatedAccept = "application/vnd.npm.install-v1+json; q=1.0, application/json; q=0.8"
)

// ResolutionError reports that no concrete version could be found for a
// package and range.
type ResolutionError struct {
	Package string
	Range   string
	Cause   error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("no version of %q satisfies %q", e.Package, e.Range)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// Options configures a Client.
type Options struct {
	// URL is the registry base URL. Defaults to DefaultURL.
	URL string
	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration
	// Retries is the number of retries on transient failures.
	Retries int
}

// Client resolves version ranges. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// Packument is the subset of the registry document the client needs.
type Packument struct {
	Versions map[string]json.RawMessage `json:"versions"`
	DistTags map[string]string          `json:"dist-tags"`
}

// NewClient creates a registry client.
func NewClient(opts Options) *Client {
	base := opts.URL
	if base == "" {
		base = DefaultURL
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = output.LeveledLogger{}

	hc := rc.StandardClient()
	hc.Timeout = opts.Timeout

	return &Client{
		baseURL: strings.TrimSuffix(base, "/"),
		http:    hc,
	}
}

// IsPinned reports whether versionSpec is already a concrete version, which
// is the case when it starts with a digit.
func IsPinned(versionSpec string) bool {
	return versionSpec != "" && unicode.IsDigit(rune(versionSpec[0]))
}

// Resolve returns the greatest published version of name satisfying
// versionRange. Pinned versions are returned as-is without network access.
func (c *Client) Resolve(ctx context.Context, name, versionRange string) (string, error) {
	if IsPinned(versionRange) {
		return versionRange, nil
	}

	doc, err := c.fetch(ctx, name)
	if err != nil {
		return "", &ResolutionError{Package: name, Range: versionRange, Cause: err}
	}

	version, err := Select(doc, versionRange)
	if err != nil {
		return "", &ResolutionError{Package: name, Range: versionRange, Cause: err}
	}
	if version == "" {
		return "", &ResolutionError{Package: name, Range: versionRange}
	}

	output.Debug("resolved package", "package", name, "range", versionRange, "version", version)
	return version, nil
}

// Select picks the greatest version of the document satisfying versionRange,
// or returns an empty string when none does. A range equal to a dist-tag
// name selects the tagged version.
func Select(doc *Packument, versionRange string) (string, error) {
	if tagged, ok := doc.DistTags[versionRange]; ok {
		if _, published := doc.Versions[tagged]; published {
			return tagged, nil
		}
	}

	constraint, err := semver.NewConstraint(versionRange)
	if err != nil {
		return "", fmt.Errorf("invalid range: %w", err)
	}

	var best *semver.Version
	bestRaw := ""
	for raw := range doc.Versions {
		v, err := semver.StrictNewVersion(raw)
		if err != nil {
			continue
		}
		if !constraint.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}
	return bestRaw, nil
}

func (c *Client) fetch(ctx context.Context, name string) (*Packument, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", abbreviatedAccept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", endpoint, resp.StatusCode)
	}

	var doc Packument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding packument: %w", err)
	}
	return &doc, nil
}
