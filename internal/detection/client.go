// internal/detection/client.go

// Package detection proxies images to the external object-detection service.
package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"ElephantWatchAPI/internal/models"
)

var ErrNotConfigured = errors.New("detection: service URL not configured")

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Detect uploads an image as the "file" field of POST /detect.
func (c *Client) Detect(ctx context.Context, filename string, image io.Reader) ([]models.Detection, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if filename == "" {
		filename = "image.jpg"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("detection: create form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("detection: copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("detection: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", &body)
	if err != nil {
		return nil, fmt.Errorf("detection: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection: upstream returned %s", resp.Status)
	}

	var out models.DetectResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("detection: decode response: %w", err)
	}
	if out.Detections == nil {
		out.Detections = []models.Detection{}
	}
	return out.Detections, nil
}

// Ping checks that the service root answers.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("detection: ping: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("detection: ping returned %s", resp.Status)
	}
	return nil
}

// Scale maps boxes from natural image pixels to display pixels. Boxes are
// returned unchanged when either natural dimension is not positive.
func Scale(dets []models.Detection, naturalW, naturalH, displayW, displayH float64) []models.Detection {
	out := make([]models.Detection, len(dets))
	copy(out, dets)
	if naturalW <= 0 || naturalH <= 0 || displayW <= 0 || displayH <= 0 {
		return out
	}

	sx, sy := displayW/naturalW, displayH/naturalH
	for i := range out {
		out[i].X *= sx
		out[i].Y *= sy
		out[i].Width *= sx
		out[i].Height *= sy
	}
	return out
}
