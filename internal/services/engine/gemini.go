package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/audioscribe/transcriber-api/pkg/config"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	// fileStatePollInterval is how often we re-check an uploaded file that
	// the service is still ingesting
	fileStatePollInterval = 2 * time.Second
	fileStateMaxWait      = 2 * time.Minute
)

// GeminiClient talks to the Generative Language API over plain HTTP
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a client from configuration
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	return &GeminiClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type fileResource struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	State    string `json:"state"`
}

type uploadResponse struct {
	File fileResource `json:"file"`
}

// Upload pushes segment audio with a raw media upload and polls until the
// file leaves the PROCESSING state
func (c *GeminiClient) Upload(ctx context.Context, data []byte, mimeType string) (FileHandle, error) {
	url := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.baseURL, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return FileHandle{}, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FileHandle{}, fmt.Errorf("uploading file: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FileHandle{}, fmt.Errorf("reading upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return FileHandle{}, apiError("upload", resp.StatusCode, body)
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return FileHandle{}, fmt.Errorf("decoding upload response: %w", err)
	}

	handle := FileHandle{
		Name:     uploaded.File.Name,
		URI:      uploaded.File.URI,
		MimeType: uploaded.File.MimeType,
		State:    uploaded.File.State,
	}
	if handle.MimeType == "" {
		handle.MimeType = mimeType
	}

	log.Printf("[DEBUG] Uploaded %d bytes as %s (state %s)", len(data), handle.Name, handle.State)

	if handle.Active() {
		return handle, nil
	}
	return c.waitForActive(ctx, handle)
}

// waitForActive polls the file resource until it becomes ACTIVE
func (c *GeminiClient) waitForActive(ctx context.Context, handle FileHandle) (FileHandle, error) {
	deadline := time.Now().Add(fileStateMaxWait)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return FileHandle{}, ctx.Err()
		case <-time.After(fileStatePollInterval):
		}

		current, err := c.getFile(ctx, handle.Name)
		if err != nil {
			return FileHandle{}, err
		}

		switch current.State {
		case "ACTIVE":
			handle.State = current.State
			if current.URI != "" {
				handle.URI = current.URI
			}
			return handle, nil
		case "FAILED":
			return FileHandle{}, fmt.Errorf("file %s failed server-side processing", handle.Name)
		}
	}

	return FileHandle{}, fmt.Errorf("file %s not active after %v", handle.Name, fileStateMaxWait)
}

func (c *GeminiClient) getFile(ctx context.Context, name string) (*fileResource, error) {
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating get file request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading file response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("get file", resp.StatusCode, body)
	}

	var file fileResource
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("decoding file response: %w", err)
	}
	return &file, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"fileData,omitempty"`
}

type fileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
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
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Transcribe runs the model against an uploaded file with the transcription
// prompt and returns the concatenated text parts
func (c *GeminiClient) Transcribe(ctx context.Context, file FileHandle, model, prompt string) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)

	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{FileData: &fileData{MimeType: file.MimeType, FileURI: file.URI}},
				{Text: prompt},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding transcription request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribing: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading transcription response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", apiError("transcribe", resp.StatusCode, body)
	}

	var generated generateResponse
	if err := json.Unmarshal(body, &generated); err != nil {
		return "", fmt.Errorf("decoding transcription response: %w", err)
	}

	if generated.Error != nil {
		return "", fmt.Errorf("transcription error %d: %s", generated.Error.Code, generated.Error.Message)
	}
	if len(generated.Candidates) == 0 {
		return "", fmt.Errorf("transcription returned no candidates")
	}

	var text string
	for _, p := range generated.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text, nil
}

// apiError shapes a non-200 response into an error that keeps enough of the
// body to debug without dumping megabytes into logs
func apiError(operation string, statusCode int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 512 {
		snippet = snippet[:512]
	}
	return fmt.Errorf("%s failed with status %d: %s", operation, statusCode, snippet)
}

var _ Service = (*GeminiClient)(nil)
