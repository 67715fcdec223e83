package analysis

import (
	"bytes"
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

	"go.uber.org/zap"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// File states reported by the remote service
const (
	stateProcessing = "PROCESSING"
	stateActive     = "ACTIVE"
	stateFailed     = "FAILED"
)

var (
	// ErrProcessingFailed means the remote job reached its FAILED state
	ErrProcessingFailed = errors.New("remote processing failed")
	// ErrBadResponse means the model output could not be parsed as JSON
	ErrBadResponse = errors.New("analysis response is not valid JSON")
)

// Client talks to the Gemini files + generateContent APIs. All calls are
// blocking; the poll loop has no upper bound but honors ctx cancellation
// between polls.
type Client struct {
	apiKey       string
	model        string
	baseURL      string
	pollInterval time.Duration
	httpClient   *http.Client
	log          *zap.SugaredLogger
}

// New creates an analysis client. model and pollInterval fall back to
// sensible defaults when zero.
func New(apiKey, model string, pollInterval time.Duration, log *zap.SugaredLogger) *Client {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Client{
		apiKey:       apiKey,
		model:        model,
		baseURL:      defaultBaseURL,
		pollInterval: pollInterval,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		log:          log,
	}
}

// SetBaseURL overrides the API endpoint, e.g. for a local proxy
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// remoteFile is the files API resource
type remoteFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	State    string `json:"state"`
}

type uploadResponse struct {
	File remoteFile `json:"file"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"fileData,omitempty"`
}

type fileData struct {
	FileURI  string `json:"fileUri"`
	MimeType string `json:"mimeType"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze uploads the video, waits for remote processing, generates content
// with the given prompt, and returns the raw JSON payload. The uploaded
// remote file is deleted afterwards on a best-effort basis.
func (c *Client) Analyze(ctx context.Context, filePath, prompt string) (json.RawMessage, error) {
	remote, err := c.upload(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filepath.Base(filePath), err)
	}
	defer c.cleanup(remote.Name)

	remote, err = c.waitActive(ctx, remote)
	if err != nil {
		return nil, err
	}

	raw, err := c.generate(ctx, remote, prompt)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) upload(ctx context.Context, filePath string) (*remoteFile, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	url := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, f)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("Content-Type", mimeTypeFor(filePath))
	if fi, err := f.Stat(); err == nil {
		req.ContentLength = fi.Size()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("upload status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if ur.File.Name == "" {
		return nil, fmt.Errorf("upload response missing file name")
	}
	return &ur.File, nil
}

// waitActive polls the remote file until it leaves PROCESSING
func (c *Client) waitActive(ctx context.Context, remote *remoteFile) (*remoteFile, error) {
	for remote.State == stateProcessing || remote.State == "" {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		refreshed, err := c.getFile(ctx, remote.Name)
		if err != nil {
			return nil, fmt.Errorf("poll %s: %w", remote.Name, err)
		}
		remote = refreshed
	}
	if remote.State == stateFailed {
		return nil, fmt.Errorf("%s: %w", remote.Name, ErrProcessingFailed)
	}
	return remote, nil
}

func (c *Client) getFile(ctx context.Context, name string) (*remoteFile, error) {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("files.get status %d", resp.StatusCode)
	}
	var rf remoteFile
	if err := json.NewDecoder(resp.Body).Decode(&rf); err != nil {
		return nil, err
	}
	return &rf, nil
}

func (c *Client) generate(ctx context.Context, remote *remoteFile, prompt string) (json.RawMessage, error) {
	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{FileData: &fileData{FileURI: remote.URI, MimeType: remote.MimeType}},
				{Text: prompt},
			},
		}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var gr generateResponse
	if err := json.Unmarshal(respBytes, &gr); err != nil {
		return nil, fmt.Errorf("parse generate response: %w", err)
	}
	if gr.Error != nil {
		return nil, fmt.Errorf("generate error: %s", gr.Error.Message)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("generate returned no candidates")
	}

	text := cleanJSON(gr.Candidates[0].Content.Parts[0].Text)
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, truncate(text, 200))
	}
	return json.RawMessage(text), nil
}

// cleanup deletes the uploaded remote file. Failures are logged and
// swallowed — the service garbage-collects on its own.
func (c *Client) cleanup(name string) {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)
	req, err := http.NewRequest("DELETE", url, nil)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debugw("remote cleanup failed", "file", name, "error", err)
		return
	}
	resp.Body.Close()
}

// cleanJSON strips markdown fences if the model wraps its response in
// ```json ... ``` despite the JSON response MIME type
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mkv":
		return "video/x-matroska"
	default:
		return "video/mp4"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
