// Package remote submits learning requests to the codemod learning service
// and builds links to the companion studio.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"codelearn/internal/snippet"
)

// DefaultServer is the production learning service URL.
const DefaultServer = "https://backend.codemod.com"

// DefaultEngine is the codemod engine requested from the studio.
const DefaultEngine = "jscodeshift"

// Client communicates with the learning service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	AuthToken  string
	// Compress sends request bodies zstd-encoded.
	Compress bool
}

// NewClient creates a new client for baseURL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		AuthToken: token,
	}
}

// --- Wire types ---

// DiffRequest is the payload of a learning submission.
type DiffRequest struct {
	Engine string         `json:"engine,omitempty"`
	Pairs  []snippet.Pair `json:"pairs"`
}

// DiffResponse identifies a stored submission. IV is the initialization
// vector the studio needs to decrypt it.
type DiffResponse struct {
	ID string `json:"id"`
	IV string `json:"iv"`
}

// ErrorResponse is returned for API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CreateCodeDiff submits all pairs of req as a single request.
func (c *Client) CreateCodeDiff(ctx context.Context, engine string, req *snippet.Request) (*DiffResponse, error) {
	body, err := json.Marshal(DiffRequest{Engine: engine, Pairs: req.Pairs})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := c.post(ctx, "/diffs", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var result DiffResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.ID == "" || result.IV == "" {
		return nil, fmt.Errorf("incomplete response: id=%q iv=%q", result.ID, result.IV)
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	encoding := ""
	if c.Compress {
		compressed, err := compress(body)
		if err != nil {
			return nil, err
		}
		body = compressed
		encoding = "zstd"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}
	if c.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AuthToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	return resp, nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		if errResp.Details != "" {
			return fmt.Errorf("%s: %s", errResp.Error, errResp.Details)
		}
		return fmt.Errorf("%s", errResp.Error)
	}
	return fmt.Errorf("server error: %d %s", resp.StatusCode, string(body))
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	encoder, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("closing encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// StudioURL builds the studio link that loads a submitted diff.
func StudioURL(base, engine, diffID, iv string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing studio URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("studio URL %q is not absolute", base)
	}

	q := url.Values{}
	q.Set("engine", engine)
	q.Set("diffId", diffID)
	q.Set("iv", iv)
	q.Set("command", "learn")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
