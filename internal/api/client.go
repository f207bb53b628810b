// Package api is the client for the persistence collaborator: the video
// library endpoints plus login/signup. Failures are classified so the editor
// can word its notices (unreachable, timeout, validation, generic).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cuetube/cuetube/internal/hotcue"
)

const defaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 * 1024

// VideoRecord is one saved video in a user's library.
type VideoRecord struct {
	VideoID    string     `json:"videoId"`
	Title      string     `json:"title"`
	YouTubeURL string     `json:"youtubeUrl"`
	Hotcues    hotcue.Set `json:"hotcues"`
}

// SaveRequest is the POST /api/videos body.
type SaveRequest struct {
	YouTubeURL string     `json:"youtubeUrl"`
	VideoID    string     `json:"videoId"`
	Hotcues    hotcue.Set `json:"hotcues"`
	Username   string     `json:"username"`
}

// Credentials is the login/signup body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type errorBody struct {
	Error         string   `json:"error"`
	Details       string   `json:"details,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
	Type          string   `json:"type,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SetToken sets the bearer token attached to library requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

// ListVideos fetches the user's library. Hotcue sets are normalized at this
// boundary, so legacy bare-number entries never reach the rest of the code.
func (c *Client) ListVideos(ctx context.Context) ([]VideoRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/videos", nil)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		VideoID    string          `json:"videoId"`
		Title      string          `json:"title"`
		YouTubeURL string          `json:"youtubeUrl"`
		Hotcues    json.RawMessage `json:"hotcues"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode video list: %w", err)
	}

	records := make([]VideoRecord, 0, len(raw))
	for _, v := range raw {
		records = append(records, VideoRecord{
			VideoID:    v.VideoID,
			Title:      v.Title,
			YouTubeURL: v.YouTubeURL,
			Hotcues:    hotcue.Normalize(v.Hotcues),
		})
	}
	return records, nil
}

// SaveVideo persists the full hotcue set for one video. The structured wire
// form is always written.
func (c *Client) SaveVideo(ctx context.Context, req SaveRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/api/videos", req)
	return err
}

// DeleteVideo removes a video from the library.
func (c *Client) DeleteVideo(ctx context.Context, videoID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/videos/"+videoID, nil)
	return err
}

// Login authenticates and returns the access token on success. An unknown
// username surfaces as a ServerError with Type "USER_NOT_FOUND".
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/login", creds)
	if err != nil {
		return "", err
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	return resp.AccessToken, nil
}

// Signup creates an account and returns the access token on success.
func (c *Client) Signup(ctx context.Context, creds Credentials) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/signup", creds)
	if err != nil {
		return "", err
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode signup response: %w", err)
	}
	return resp.AccessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		return &ServerError{StatusCode: resp.StatusCode, Message: string(data)}
	}

	if len(body.MissingFields) > 0 || (resp.StatusCode == http.StatusBadRequest && body.Details != "") {
		return &ValidationError{
			Message:       body.Error,
			Details:       body.Details,
			MissingFields: body.MissingFields,
		}
	}

	return &ServerError{StatusCode: resp.StatusCode, Message: body.Error, Type: body.Type}
}
