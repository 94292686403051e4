// Package embedder computes face descriptors by calling the face
// embedding server over HTTP.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultEmbeddingURL = "http://localhost:8000"

// Detection is a validated face detection result. A nil *Detection means
// no face was found in the frame.
type Detection struct {
	Descriptor []float32
	Box        [4]float64 // [x1, y1, x2, y2] in frame pixel coordinates
	Score      float64
}

// Client talks to the face embedding server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new embedding client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultEmbeddingURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// detectResponse represents the response from the embedding server.
type detectResponse struct {
	Detected  bool       `json:"detected"`
	Embedding []float32  `json:"embedding"`
	Box       [4]float64 `json:"box"`
	Score     float64    `json:"score"`
}

// postFrame constructs a multipart form with the frame data and posts it
// to the given endpoint.
func (c *Client) postFrame(ctx context.Context, endpoint string, frame []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(frame); err != nil {
		return nil, fmt.Errorf("failed to write frame data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// DetectFace runs single-face detection on a JPEG frame. Returns nil when
// the server finds no face.
func (c *Client) DetectFace(ctx context.Context, frame []byte) (*Detection, error) {
	body, err := c.postFrame(ctx, "/detect/face", frame)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !resp.Detected || len(resp.Embedding) == 0 {
		return nil, nil
	}

	return &Detection{
		Descriptor: resp.Embedding,
		Box:        resp.Box,
		Score:      resp.Score,
	}, nil
}
