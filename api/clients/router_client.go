// Package clients provides typed HTTP clients for the storage router API.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruteri/storage-router/api"
)

// RouterClient talks to a storage router's HTTP API.
type RouterClient struct {
	baseURL string
	client  *http.Client
}

// NewRouterClient creates a client for the router at baseURL.
func NewRouterClient(baseURL string) *RouterClient {
	return &RouterClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// GetImmutableParams narrows an immutable fetch.
type GetImmutableParams struct {
	URLHint string
	Drivers []string
	Raw     bool
	Chain   bool
}

// GetImmutable fetches immutable data by hash.
func (c *RouterClient) GetImmutable(ctx context.Context, hash string, params GetImmutableParams) ([]byte, error) {
	q := url.Values{}
	if params.URLHint != "" {
		q.Set("url", params.URLHint)
	}
	for _, d := range params.Drivers {
		q.Add("driver", d)
	}
	if params.Raw {
		q.Set("raw", "true")
	}
	if params.Chain {
		q.Set("chain", "true")
	}

	return c.get(ctx, "/api/v1/immutable/"+url.PathEscape(hash), q)
}

// PutImmutable stores immutable data and returns its hash.
func (c *RouterClient) PutImmutable(ctx context.Context, req api.PutImmutableRequest) (string, error) {
	var resp api.PutImmutableResponse
	if err := c.postJSON(ctx, "/api/v1/immutable", req, &resp); err != nil {
		return "", err
	}
	return resp.Hash, nil
}

// DeleteImmutable deletes immutable data.
func (c *RouterClient) DeleteImmutable(ctx context.Context, hash string, req api.DeleteImmutableRequest) error {
	return c.deleteJSON(ctx, "/api/v1/immutable/"+url.PathEscape(hash), req)
}

// GetMutableParams narrows a mutable fetch.
type GetMutableParams struct {
	PublicKey    string
	DataAddress  string
	OwnerAddress string
	URLs         []string
	Drivers      []string
	Raw          bool
}

// GetMutable fetches a verified mutable payload by fully-qualified data ID.
func (c *RouterClient) GetMutable(ctx context.Context, fqDataID string, params GetMutableParams) (json.RawMessage, error) {
	q := url.Values{}
	if params.PublicKey != "" {
		q.Set("pubkey", params.PublicKey)
	}
	if params.DataAddress != "" {
		q.Set("address", params.DataAddress)
	}
	if params.OwnerAddress != "" {
		q.Set("owner", params.OwnerAddress)
	}
	for _, u := range params.URLs {
		q.Add("url", u)
	}
	for _, d := range params.Drivers {
		q.Add("driver", d)
	}
	if params.Raw {
		q.Set("raw", "true")
	}

	return c.get(ctx, "/api/v1/mutable/"+url.PathEscape(fqDataID), q)
}

// PutMutable signs and stores a mutable payload.
func (c *RouterClient) PutMutable(ctx context.Context, fqDataID string, req api.PutMutableRequest) error {
	var resp api.StatusResponse
	return c.postJSON(ctx, "/api/v1/mutable/"+url.PathEscape(fqDataID), req, &resp)
}

// DeleteMutable deletes a mutable record.
func (c *RouterClient) DeleteMutable(ctx context.Context, fqDataID string, req api.DeleteMutableRequest) error {
	return c.deleteJSON(ctx, "/api/v1/mutable/"+url.PathEscape(fqDataID), req)
}

// GetAnnouncement fetches announcement text by chain-compatible hash.
func (c *RouterClient) GetAnnouncement(ctx context.Context, hash string) (string, error) {
	data, err := c.get(ctx, "/api/v1/announcements/"+url.PathEscape(hash), nil)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PutAnnouncement stores announcement text and returns its hash.
func (c *RouterClient) PutAnnouncement(ctx context.Context, req api.PutAnnouncementRequest) (string, error) {
	var resp api.PutAnnouncementResponse
	if err := c.postJSON(ctx, "/api/v1/announcements", req, &resp); err != nil {
		return "", err
	}
	return resp.Hash, nil
}

func (c *RouterClient) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *RouterClient) postJSON(ctx context.Context, path string, body, dst any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	data, err := c.do(req)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func (c *RouterClient) deleteJSON(ctx context.Context, path string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}

func (c *RouterClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
