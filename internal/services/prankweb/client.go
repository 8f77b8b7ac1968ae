package prankweb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"prankweb-sync/internal/fileutil"
	"prankweb-sync/internal/services"
)

// Remote job status values carried in the prediction body.
const (
	JobSuccessful = "successful"
	JobFailed     = "failed"
)

// ArchiveName is the fixed name of a prediction result archive.
const ArchiveName = "prankweb.zip"

// Prediction is the remote job state for one entry.
type Prediction struct {
	Status     string `json:"status"`
	Created    string `json:"created"`
	LastChange string `json:"lastChange"`
}

// Service describes the prediction-service operations the pipeline needs.
type Service interface {
	PredictionStatus(ctx context.Context, code string) (*Prediction, error)
	RetrieveArchive(ctx context.Context, code, destPath string) error
	PredictionURLTemplate() string
}

// HTTPDoer describes the HTTP client used by the prankweb client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client accesses one prankweb server. When predictionDir is set, result
// archives are read from that directory instead of being downloaded.
type Client struct {
	baseURL       string
	predictionDir string
	httpClient    HTTPDoer
}

var _ Service = (*Client)(nil)

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

// New creates a prankweb client.
func New(baseURL, predictionDir string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("prankweb server url required")
	}
	client := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		predictionDir: strings.TrimSpace(predictionDir),
		httpClient:    &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// PredictionStatus queries the remote job state for one code. Transport
// failures are tagged ErrTransient, non-success responses ErrRemote.
func (c *Client) PredictionStatus(ctx context.Context, code string) (*Prediction, error) {
	endpoint := c.predictionEndpoint(code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "prankweb", "status", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "prankweb", "status", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(services.ErrRemote, "prankweb", "status",
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var prediction Prediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, services.Wrap(services.ErrRemote, "prankweb", "status", "decode response", err)
	}
	return &prediction, nil
}

// RetrieveArchive obtains the result archive for a code into destPath.
func (c *Client) RetrieveArchive(ctx context.Context, code, destPath string) error {
	if c.predictionDir != "" {
		return c.copyLocalArchive(code, destPath)
	}
	return c.downloadArchive(ctx, code, destPath)
}

func (c *Client) copyLocalArchive(code, destPath string) error {
	source := filepath.Join(c.predictionDir, "v1", shard(code), canonical(code), "public", ArchiveName)
	if _, err := os.Stat(source); err != nil {
		return services.Wrap(services.ErrNotFound, "prankweb", "archive", source, err)
	}
	if err := fileutil.CopyFile(source, destPath); err != nil {
		return services.Wrap(services.ErrNotFound, "prankweb", "archive", "copy "+source, err)
	}
	return nil
}

func (c *Client) downloadArchive(ctx context.Context, code, destPath string) error {
	endpoint := c.predictionEndpoint(code) + "/public/" + ArchiveName
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "prankweb", "archive", "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "prankweb", "archive", "execute request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "prankweb", "archive", endpoint, nil)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		return services.Wrap(services.ErrRemote, "prankweb", "archive",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(destPath)
		return services.Wrap(services.ErrTransient, "prankweb", "archive", "download "+endpoint, err)
	}
	return out.Close()
}

// PredictionURLTemplate returns the provenance URL pattern recorded in
// converted FunPDBe entries. The {pdb_id} placeholder is substituted by the
// conversion routine.
func (c *Client) PredictionURLTemplate() string {
	return c.baseURL + "/analyze?database=v1&code={pdb_id}"
}

func (c *Client) predictionEndpoint(code string) string {
	return fmt.Sprintf("%s/api/v2/prediction/v1/%s", c.baseURL, canonical(code))
}

func canonical(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func shard(code string) string {
	lowered := strings.ToLower(strings.TrimSpace(code))
	if len(lowered) < 2 {
		return lowered
	}
	return lowered[:2]
}
