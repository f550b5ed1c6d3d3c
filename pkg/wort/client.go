// Package wort resolves SRA accessions against a wort-style signature
// service. The service answers GET <base>/<accession> with a redirect whose
// Location is the concrete object URL (wort currently redirects to an IPFS
// gateway). Resolution only surfaces that URL; streaming it is the
// downloader's job, since the next hop may belong to a different storage
// subsystem than the service itself.
package wort

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/glorpus-work/sigsync/pkg/errors"
	"github.com/glorpus-work/sigsync/pkg/model"
)

// Client resolves accessions against the signature service.
type Client struct {
	client    *http.Client
	base      string
	userAgent string
}

// NewClient creates a resolver client for the given endpoint base URL.
func NewClient(base string, timeout time.Duration, userAgent string) *Client {
	if userAgent == "" {
		userAgent = "sigsync/1.0"
	}
	return &Client{
		client: &http.Client{
			Timeout: timeout,
			// Surface the redirect target instead of following it; the
			// object store is streamed by the downloader, not here.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		base:      strings.TrimRight(base, "/"),
		userAgent: userAgent,
	}
}

// Resolve asks the service whether a signature exists for accession.
// A missing signature is an expected outcome, not an error: it yields a
// Reference with Found unset and a nil error. Transport failures and
// unexpected statuses wrap errors.ErrResolveFailed.
func (c *Client) Resolve(ctx context.Context, accession string) (model.Reference, error) {
	reqURL := fmt.Sprintf("%s/%s", c.base, url.PathEscape(accession))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return model.Reference{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Reference{}, errors.Wrap(errors.ErrResolveFailed, err.Error())
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode < http.StatusBadRequest:
		loc, err := resp.Location()
		if err != nil {
			return model.Reference{}, errors.Wrapf(errors.ErrResolveFailed, "redirect without location for %s", accession)
		}
		return model.Reference{Found: true, URL: loc}, nil

	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		// The service answered directly; stream from the final request URL.
		return model.Reference{Found: true, URL: resp.Request.URL}, nil

	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return model.Reference{}, nil

	default:
		return model.Reference{}, errors.Wrapf(errors.ErrResolveFailed, "unexpected status code for %s: %d", accession, resp.StatusCode)
	}
}
