package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultRecognizerTimeout bounds a single recognition request.
const DefaultRecognizerTimeout = 60 * time.Second

// HTTPRecognizer posts audio to a phoneme recognition service. The service
// receives a multipart form with the WAV under "file" and answers
// {"phonemes": "..."}.
type HTTPRecognizer struct {
	URL    string
	Client *http.Client
}

// NewHTTPRecognizer returns a recognizer for url with the given timeout.
func NewHTTPRecognizer(url string, timeout time.Duration) *HTTPRecognizer {
	if timeout <= 0 {
		timeout = DefaultRecognizerTimeout
	}
	return &HTTPRecognizer{URL: url, Client: &http.Client{Timeout: timeout}}
}

type recognizeResponse struct {
	Phonemes *string `json:"phonemes"`
	Error    string  `json:"error"`
}

// Recognize implements Recognizer.
func (r *HTTPRecognizer) Recognize(ctx context.Context, wavPath string) (string, error) {
	if r.URL == "" {
		return "", fmt.Errorf("recognizer url is not configured")
	}
	body, contentType, err := multipartFile(wavPath)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, body)
	if err != nil {
		return "", fmt.Errorf("build recognizer request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("recognizer request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var payload recognizeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("unexpected recognizer status: %s", resp.Status)
		}
		return "", fmt.Errorf("decode recognizer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if payload.Error != "" {
			return "", fmt.Errorf("recognizer: %s (%s)", payload.Error, resp.Status)
		}
		return "", fmt.Errorf("unexpected recognizer status: %s", resp.Status)
	}
	if payload.Phonemes == nil {
		return "", ErrNoPhonemes
	}
	return *payload.Phonemes, nil
}

func multipartFile(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open audio: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("copy audio: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
