package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const headerAuthToken = "X-Auth-Token"

// HTTPClient talks to the directory service over its REST interface.
type HTTPClient struct {
	baseURL string
	token   func() string
	client  *http.Client
}

// NewHTTPClient builds a directory client. token is called per request so a
// renewed service token is picked up without rebuilding the client.
func NewHTTPClient(baseURL string, token func() string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) FindParticipantByChannel(ctx context.Context, channame string) (*Participant, error) {
	var out Participant
	found, err := c.get(ctx, "/participants/by-channel/"+url.PathEscape(channame), &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FindParticipantByUser(ctx context.Context, userUUID string) (*Participant, error) {
	var out Participant
	found, err := c.get(ctx, "/participants/by-user/"+url.PathEscape(userUUID), &out)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) FindContexts(ctx context.Context, name string) ([]ContextInfo, error) {
	var out struct {
		Items []ContextInfo `json:"items"`
	}
	found, err := c.get(ctx, "/contexts?name="+url.QueryEscape(name), &out)
	if err != nil || !found {
		return nil, err
	}
	return out.Items, nil
}

// get performs one GET; a 404 is a miss, not an error.
func (c *HTTPClient) get(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("directory: build request: %w", err)
	}
	if c.token != nil {
		req.Header.Set(headerAuthToken, c.token())
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("directory: %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("directory: %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("directory: %s: decode response: %w", path, err)
	}
	return true, nil
}
