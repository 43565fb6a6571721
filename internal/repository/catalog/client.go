package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Karasuhime/yozora/internal/log"
	"github.com/machinebox/graphql"
)

// Client is the generic archive client for making queries to the archive's
// graphql API
type Client struct {
	client    *graphql.Client
	authToken string
	archive   ArchiveInfo
}

// ArchiveInfo describes the archive instance the client is connected to
type ArchiveInfo struct {
	Name       string
	VideoCount int
}

// GetArchiveInfo returns the instance details fetched at connect time
func (c *Client) GetArchiveInfo() ArchiveInfo {
	return c.archive
}

// NewClient connects to the archive at baseURL and verifies the token by
// fetching the instance info
func NewClient(baseURL, authToken string) (*Client, error) {
	if baseURL == "" {
		log.Error("Archive server URL is empty")
		return nil, fmt.Errorf("archive server URL is empty")
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/graphql"
	c := &Client{
		client:    graphql.NewClient(endpoint),
		authToken: authToken,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	info, err := c.fetchArchiveInfo(ctx)
	if err != nil {
		return nil, err
	}

	c.archive = *info
	return c, nil
}

// Query runs a graphql operation against the archive with auth attached
func (c *Client) Query(ctx context.Context, query string, variables map[string]interface{}, result interface{}) error {
	req := graphql.NewRequest(query)

	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	for key, value := range variables {
		req.Var(key, value)
	}

	return c.client.Run(ctx, req, result)
}

// NetworkError marks transport-level failures so callers can distinguish
// "archive unreachable" from "archive rejected the request"
type NetworkError struct {
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

func (c *Client) fetchArchiveInfo(ctx context.Context) (*ArchiveInfo, error) {
	query := `
        query {
            archive {
                name
                videoCount
            }
        }
    `

	var response struct {
		Archive struct {
			Name       string
			VideoCount int `json:"videoCount"`
		}
	}

	if err := c.Query(ctx, query, nil, &response); err != nil {
		// Check if this is a network error
		var netErr *url.Error
		if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary() ||
			strings.Contains(err.Error(), "connection refused") ||
			strings.Contains(err.Error(), "no such host") ||
			strings.Contains(err.Error(), "i/o timeout")) {
			return nil, NetworkError{Err: err}
		}
		return nil, fmt.Errorf("failed to fetch archive info: %w", err)
	}

	if response.Archive.Name == "" {
		return nil, fmt.Errorf("invalid or unauthorized token")
	}

	log.Info("Connected to archive", "name", response.Archive.Name, "videos", response.Archive.VideoCount)

	return &ArchiveInfo{
		Name:       response.Archive.Name,
		VideoCount: response.Archive.VideoCount,
	}, nil
}
