package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zohouse/questbot/internal/config"
)

// Client talks to the external text-to-image API used for quest icons. The
// API is asynchronous: create a task, then poll until it settles.
type Client struct {
	apiKey     string
	baseURL    string
	createPath string
	httpClient *http.Client
	log        *slog.Logger
}

type Image struct {
	URL   string
	Bytes []byte
	Mime  string
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	createPath := cfg.ImageGenPath
	if createPath == "" {
		createPath = "/api/v1/jobs/createTask"
	}
	return &Client{
		apiKey:     cfg.ImageGenAPIKey,
		baseURL:    strings.TrimRight(cfg.ImageGenBaseURL, "/"),
		createPath: createPath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Enabled reports whether icon generation is configured at all; callers fall
// back to the static badge when it isn't.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != "" && c.baseURL != ""
}

// GenerateIcon produces a small square icon for a quest from its title and
// description and returns the downloaded PNG bytes.
func (c *Client) GenerateIcon(ctx context.Context, title, description string) ([]byte, error) {
	img, err := c.generate(ctx, title, description)
	if err != nil {
		return nil, err
	}
	return img.Bytes, nil
}

func (c *Client) generate(ctx context.Context, title, description string) (*Image, error) {
	prompt := fmt.Sprintf(
		"Minimal flat vector icon for a community quest titled %q. Theme: %s. Bold shapes, transparent background, no text.",
		title, description,
	)
	payload := map[string]any{
		"model": "icon-lite",
		"input": map[string]any{
			"prompt":        prompt,
			"aspect_ratio":  "1:1",
			"resolution":    "512x512",
			"output_format": "png",
		},
	}

	taskID, err := c.createTask(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	img, err := c.pollTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := c.download(ctx, img); err != nil {
		return nil, fmt.Errorf("download icon: %w", err)
	}
	return img, nil
}

func (c *Client) createTask(ctx context.Context, payload map[string]any) (string, error) {
	fullURL, err := c.resolve(c.createPath, nil)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post imagegen: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Error("imagegen create task failed", "status", resp.StatusCode, "body", truncateBody(rawBody))
		}
		return "", fmt.Errorf("imagegen error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
	}

	var createResp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			TaskID string `json:"taskId"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &createResp); err != nil {
		return "", fmt.Errorf("decode create task response: %w (body=%s)", err, truncateBody(rawBody))
	}
	if createResp.Code != 200 {
		return "", fmt.Errorf("create task failed: code=%d msg=%s", createResp.Code, createResp.Msg)
	}
	if createResp.Data.TaskID == "" {
		return "", fmt.Errorf("empty taskId in response")
	}
	return createResp.Data.TaskID, nil
}

func (c *Client) pollTask(ctx context.Context, taskID string) (*Image, error) {
	params := url.Values{}
	params.Set("taskId", taskID)
	fullURL, err := c.resolve("/api/v1/jobs/recordInfo", params)
	if err != nil {
		return nil, err
	}

	maxAttempts := 60
	pollInterval := 2 * time.Second

	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("get task status: %w", err)
		}
		rawBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("imagegen error: status=%d body=%s", resp.StatusCode, truncateBody(rawBody))
		}

		var statusResp struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
			Data struct {
				State      string `json:"state"`
				ResultJSON string `json:"resultJson"`
				FailCode   string `json:"failCode"`
				FailMsg    string `json:"failMsg"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rawBody, &statusResp); err != nil {
			return nil, fmt.Errorf("decode status response: %w (body=%s)", err, truncateBody(rawBody))
		}
		if statusResp.Code != 200 {
			return nil, fmt.Errorf("get task status failed: code=%d msg=%s", statusResp.Code, statusResp.Msg)
		}

		switch statusResp.Data.State {
		case "success":
			if statusResp.Data.ResultJSON == "" {
				return nil, fmt.Errorf("empty resultJson in success response")
			}
			var result struct {
				ResultURLs []string `json:"resultUrls"`
			}
			if err := json.Unmarshal([]byte(statusResp.Data.ResultJSON), &result); err != nil {
				return nil, fmt.Errorf("parse resultJson: %w", err)
			}
			if len(result.ResultURLs) == 0 {
				return nil, fmt.Errorf("no resultUrls in result")
			}
			return &Image{URL: result.ResultURLs[0]}, nil

		case "fail":
			failMsg := statusResp.Data.FailMsg
			if failMsg == "" {
				failMsg = "unknown error"
			}
			if c.log != nil {
				c.log.Error("imagegen task failed", "task_id", taskID, "fail_code", statusResp.Data.FailCode, "fail_msg", failMsg)
			}
			return nil, fmt.Errorf("task failed: %s (code: %s)", failMsg, statusResp.Data.FailCode)

		case "waiting", "generating", "processing", "queued", "queueing":
			if c.log != nil && attempt%10 == 0 {
				c.log.Info("imagegen task waiting", "task_id", taskID, "attempt", attempt+1, "max_attempts", maxAttempts)
			}
			if attempt < maxAttempts-1 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(pollInterval):
					continue
				}
			}
			return nil, fmt.Errorf("task timeout after %d attempts", maxAttempts)

		default:
			return nil, fmt.Errorf("unknown task state: %s", statusResp.Data.State)
		}
	}
	return nil, fmt.Errorf("task timeout after %d attempts", maxAttempts)
}

func (c *Client) download(ctx context.Context, img *Image) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.URL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("fetch result: status=%d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read result: %w", err)
	}
	img.Bytes = data
	img.Mime = resp.Header.Get("Content-Type")
	return nil
}

func (c *Client) resolve(path string, params url.Values) (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	endpoint, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if params != nil {
		endpoint.RawQuery = params.Encode()
	}
	return base.ResolveReference(endpoint).String(), nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
