package pdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"prankweb-sync/internal/services"
)

const searchPageSize = 1000

// Record is one remote discovery result.
type Record struct {
	Code     string
	Released string
}

// Discoverer lists entries released on or after a date.
type Discoverer interface {
	ReleasedSince(ctx context.Context, from string) ([]Record, error)
}

// HTTPDoer describes the HTTP client used by the discovery client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the PDBe search service for released entries.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

var _ Discoverer = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a discovery client for the given search service base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("pdb search base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchResponse struct {
	Response struct {
		NumFound int `json:"numFound"`
		Docs     []struct {
			PDBID       string `json:"pdb_id"`
			ReleaseDate string `json:"release_date"`
		} `json:"docs"`
	} `json:"response"`
}

// ReleasedSince returns the entries released on or after the given date.
// Pages through the search service and deduplicates per-entity documents
// down to one record per entry code.
func (c *Client) ReleasedSince(ctx context.Context, from string) ([]Record, error) {
	var records []Record
	seen := map[string]struct{}{}

	for start := 0; ; start += searchPageSize {
		page, err := c.fetchPage(ctx, from, start)
		if err != nil {
			return nil, err
		}
		for _, doc := range page.Response.Docs {
			code := strings.ToUpper(strings.TrimSpace(doc.PDBID))
			if code == "" {
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			records = append(records, Record{Code: code, Released: doc.ReleaseDate})
		}
		if len(page.Response.Docs) == 0 || start+searchPageSize >= page.Response.NumFound {
			break
		}
	}
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, from string, start int) (*searchResponse, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("status:REL AND release_date:[%s TO *]", from))
	query.Set("fl", "pdb_id,release_date")
	query.Set("wt", "json")
	query.Set("rows", strconv.Itoa(searchPageSize))
	query.Set("start", strconv.Itoa(start))
	endpoint := fmt.Sprintf("%s/search/pdb/select?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pdb", "search", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "pdb", "search", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrRemote, "pdb", "search",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrRemote, "pdb", "search", "decode response", err)
	}
	return &payload, nil
}
