package immich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "immich-dl/pkg/errors"
	"immich-dl/pkg/logger"
)

// DefaultTimeout bounds every request, body transfer included
const DefaultTimeout = 60 * time.Second

// Client represents an Immich API client bound to one server and token
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a new Immich API client
func NewClient(baseURL, token string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Authorization": "Bearer " + token,
			"User-Agent":    "immich-dl",
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log,
	}
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &apperrors.Error{
			Type:    apperrors.ErrorTypeNetwork,
			Message: err.Error(),
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// get performs a GET request against a path relative to the base URL and
// returns the response once its status is known to be 2xx
func (c *Client) get(ctx context.Context, path, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &apperrors.Error{
			Type:    apperrors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}
	req.Header.Set("Accept", accept)

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON response into target
func (c *Client) GetJSON(ctx context.Context, path string, target interface{}) error {
	resp, err := c.get(ctx, path, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperrors.Error{
			Type:    apperrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.DebugWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &apperrors.Error{
			Type:    apperrors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// GetBytes performs a GET request and returns the raw response body
func (c *Client) GetBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.get(ctx, path, "application/octet-stream")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.Error{
			Type:    apperrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return data, nil
}

// checkResponseStatus maps a non-2xx status to a typed error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	err := apperrors.FromStatus(resp.StatusCode, resp.Status)
	c.logger.DebugWithFields("unexpected response status", map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
		"type":   string(err.Type),
	})
	return err
}

// FetchAlbum fetches one album's metadata including its asset list. A missing
// asset list decodes as empty and a missing id falls back to albumID.
func (c *Client) FetchAlbum(ctx context.Context, albumID string) (*Album, error) {
	var album Album
	if err := c.GetJSON(ctx, GetAlbumPath(albumID), &album); err != nil {
		return nil, err
	}

	if album.ID == "" {
		album.ID = albumID
	}
	if album.Assets == nil {
		album.Assets = []Asset{}
	}

	c.logger.DebugWithFields("fetched album", map[string]interface{}{
		"album_id": albumID,
		"name":     album.AlbumName,
		"assets":   len(album.Assets),
	})

	return &album, nil
}

// DownloadOriginal downloads the original file content of an asset
func (c *Client) DownloadOriginal(ctx context.Context, assetID string) ([]byte, error) {
	data, err := c.GetBytes(ctx, GetAssetOriginalPath(assetID))
	if err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("downloaded asset original", map[string]interface{}{
		"asset_id": assetID,
		"size":     len(data),
	})

	return data, nil
}
