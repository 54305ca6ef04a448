// Package client is the HTTP client for the consent recording API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 60 * time.Second

// ErrAPI is wrapped by every non-2xx response.
var ErrAPI = errors.New("consent api error")

// Recording mirrors the server's stored-recording payload.
type Recording struct {
	Key           string    `json:"key"`
	URL           string    `json:"url"`
	Mime          string    `json:"mime"`
	Bytes         int64     `json:"bytes"`
	Campaign      string    `json:"campaign"`
	StoredAt      time.Time `json:"stored_at"`
	LedgerUpdated bool      `json:"ledger_updated"`
	LedgerWarning string    `json:"ledger_warning,omitempty"`
}

type LedgerEntry struct {
	RecordingKey string `json:"recording_key"`
	Campaign     string `json:"campaign"`
}

type Ledger struct {
	Key     string        `json:"key"`
	Total   int           `json:"total"`
	Entries []LedgerEntry `json:"entries"`
}

type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

type Languages struct {
	Default   string     `json:"default"`
	Languages []Language `json:"languages"`
}

type apiError struct {
	Code      string `json:"code"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// Client talks to a running consent-api.
type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("User-Agent", "consentctl/1.0").
			SetTimeout(defaultTimeout),
	}
}

// UploadRecording posts a finished recording as the multipart "video" field.
func (c *Client) UploadRecording(ctx context.Context, filename string, data []byte, mediaType, campaign string) (*Recording, error) {
	if filename == "" {
		filename = "consent.webm"
	}
	if mediaType == "" {
		mediaType = "video/webm"
	}

	var out Recording
	req := c.http.R().
		SetContext(ctx).
		SetMultipartField("video", filename, mediaType, bytes.NewReader(data)).
		SetResult(&out).
		SetError(&apiError{})
	if campaign != "" {
		req.SetMultipartFormData(map[string]string{"campaign": campaign})
	}

	resp, err := req.Post("/v1/recordings")
	if err := check(resp, err, "upload recording"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Ledger(ctx context.Context) (*Ledger, error) {
	var out Ledger
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).SetError(&apiError{}).Get("/v1/ledger")
	if err := check(resp, err, "list ledger"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Languages(ctx context.Context) (*Languages, error) {
	var out Languages
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).SetError(&apiError{}).Get("/v1/languages")
	if err := check(resp, err, "list languages"); err != nil {
		return nil, err
	}
	return &out, nil
}

func check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}
	msg := strings.TrimSpace(resp.String())
	if e, ok := resp.Error().(*apiError); ok && e != nil {
		switch {
		case e.Message != "":
			msg = e.Message
		case e.Error != "":
			msg = e.Error
		}
	}
	return fmt.Errorf("%w: %s: status %d: %s", ErrAPI, op, resp.StatusCode(), msg)
}
