/**
 * @description
 * This package provides a client for the external branch directory. The address
 * enrichment consumer uses it to resolve a branch address by account name after an
 * account.created event.
 */
package branchclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Branch is one entry of the branch directory.
type Branch struct {
	Name    string `json:"nombre"`
	Address string `json:"direccion"`
}

// Client is a client for the branch directory API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new branch directory client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ListBranches fetches the full branch directory.
func (c *Client) ListBranches(ctx context.Context) ([]Branch, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("branch directory base url is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request to branch directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("branch directory returned status %d", resp.StatusCode)
	}

	var branches []Branch
	if err := json.NewDecoder(resp.Body).Decode(&branches); err != nil {
		return nil, fmt.Errorf("failed to decode branch directory response: %w", err)
	}
	return branches, nil
}

// FindByName returns the first branch whose name matches exactly, or nil.
func (c *Client) FindByName(ctx context.Context, name string) (*Branch, error) {
	branches, err := c.ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	for i := range branches {
		if branches[i].Name == name {
			return &branches[i], nil
		}
	}
	return nil, nil
}
