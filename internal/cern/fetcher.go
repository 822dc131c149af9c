package cern

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Fetcher resolves the resource of the current request.
type Fetcher struct {
	resourceURL string
	schema      string
	directory   DirectoryLookup
}

// NewFetcher creates a fetcher querying cfg.ResourceURL and falling back to dir.
func NewFetcher(cfg *Config, dir DirectoryLookup) *Fetcher {
	return &Fetcher{
		resourceURL: cfg.ResourceURL,
		schema:      cfg.ResourceSchema,
		directory:   dir,
	}
}

// Resource returns the resource of the user behind req. It consumes the
// request cache first, then calls the resource API and caches the answer,
// then queries the directory with the logged-in user's email. ErrNoResource
// is returned when all three are unavailable.
func (f *Fetcher) Resource(ctx context.Context, req *Request) (Resource, error) {
	if res, ok := req.popResource(); ok {
		resourceFetches.WithLabelValues("cache").Inc()

		return res, nil
	}

	if req.Remote != nil {
		res, err := f.fetchRemote(ctx, req.Remote)
		if err == nil {
			resourceFetches.WithLabelValues("api").Inc()
			req.cacheResource(res)

			return res, nil
		}

		log.Warn().Err(err).Msg("resource API unavailable, falling back to the directory")
	}

	if req.authenticated() && f.directory != nil {
		resourceFetches.WithLabelValues("directory").Inc()

		return f.directory.LookupByEmail(ctx, req.User.Email), nil
	}

	resourceFetches.WithLabelValues("none").Inc()

	return nil, ErrNoResource
}

func (f *Fetcher) fetchRemote(ctx context.Context, client *http.Client) (Resource, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, f.resourceURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build resource request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call resource API: %w", err)
	}

	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Error().Err(errClose).Msg("failed to close resource response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resource API returned status %d", resp.StatusCode) //nolint:err113
	}

	var claims []Claim
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode resource response: %w", err)
	}

	return NormalizeClaims(resp.StatusCode, claims, f.schema), nil
}
