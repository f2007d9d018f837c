// Package vk implements the wall publisher against the VK API: staging a
// photo through the wall upload server, creating an (optionally delayed)
// wall post, and resolving the shareable post URL.
package vk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wallpostbot/core/logger"
	coretelegram "wallpostbot/core/telegram"
)

const (
	defaultBaseURL = "https://api.vk.com/method"
	defaultVersion = "5.131"
)

// Config holds VK API credentials and the target group.
type Config struct {
	// Token is a pre-acquired access token with wall and photos scopes.
	Token string `yaml:"token" envconfig:"VK_TOKEN"`
	// GroupID is the numeric community ID posts go to.
	GroupID string `yaml:"group_id" envconfig:"VK_GROUP_ID"`
	Version string `yaml:"version" envconfig:"VK_API_VERSION"`
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string `yaml:"base_url" envconfig:"VK_BASE_URL"`
}

// Client talks to the VK API over the shared retrying HTTP client.
type Client struct {
	cfg  Config
	http *http.Client
}

// New constructs a Client, applying endpoint and version defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	return &Client{
		cfg:  cfg,
		http: coretelegram.BuildHTTPClient(),
	}
}

type envelope struct {
	Response json.RawMessage `json:"response"`
	Error    *APIError       `json:"error"`
}

// call invokes one VK API method and unmarshals the response payload into
// dst when dst is non-nil.
func (c *Client) call(ctx context.Context, method string, params url.Values, dst any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.cfg.Token)
	params.Set("v", c.cfg.Version)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read body: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %s", method, resp.Status)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%s: decode: %w", method, err)
	}
	if env.Error != nil {
		return fmt.Errorf("%s: %w", method, env.Error)
	}

	logger.Debug(ctx, "vk", "api.call",
		slog.String("status", "ok"),
		slog.String("op", method),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)

	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(env.Response, dst); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	return nil
}

// Authenticate validates the configured token against users.get.
func (c *Client) Authenticate(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.Token) == "" {
		return &AuthError{Err: fmt.Errorf("empty access token")}
	}
	if err := c.call(ctx, "users.get", nil, nil); err != nil {
		return &AuthError{Err: err}
	}
	return nil
}

// StageMedia uploads the staged file to the group's wall upload server and
// saves it, returning a "photo<owner>_<id>" attachment reference.
func (c *Client) StageMedia(ctx context.Context, localPath, destination string) (string, error) {
	var server struct {
		UploadURL string `json:"upload_url"`
	}
	params := url.Values{"group_id": {destination}}
	if err := c.call(ctx, "photos.getWallUploadServer", params, &server); err != nil {
		return "", &UploadError{Err: err}
	}

	uploaded, err := c.uploadPhoto(ctx, server.UploadURL, localPath)
	if err != nil {
		return "", &UploadError{Err: err}
	}

	var saved []struct {
		ID      int64 `json:"id"`
		OwnerID int64 `json:"owner_id"`
	}
	params = url.Values{
		"group_id": {destination},
		"server":   {strconv.Itoa(uploaded.Server)},
		"photo":    {uploaded.Photo},
		"hash":     {uploaded.Hash},
	}
	if err := c.call(ctx, "photos.saveWallPhoto", params, &saved); err != nil {
		return "", &UploadError{Err: err}
	}
	if len(saved) == 0 {
		return "", &UploadError{Err: fmt.Errorf("photos.saveWallPhoto: empty response")}
	}

	ref := fmt.Sprintf("photo%d_%d", saved[0].OwnerID, saved[0].ID)
	logger.Info(ctx, "vk", "media.staged",
		slog.String("attachment", ref),
		slog.String("group_id", destination),
	)
	return ref, nil
}

type uploadResult struct {
	Server int    `json:"server"`
	Photo  string `json:"photo"`
	Hash   string `json:"hash"`
}

// uploadPhoto performs the multipart upload to the URL handed out by
// photos.getWallUploadServer.
func (c *Client) uploadPhoto(ctx context.Context, uploadURL, localPath string) (*uploadResult, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("open staged media: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", filepath.Base(localPath))
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy staged media: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload: unexpected status %s", resp.Status)
	}
	var result uploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("upload: decode: %w", err)
	}
	if result.Photo == "" || result.Photo == "[]" {
		return nil, fmt.Errorf("upload: server rejected the photo")
	}
	return &result, nil
}

// CreatePost publishes the attachment on the group wall. A non-nil
// publishAt schedules the post via publish_date.
func (c *Client) CreatePost(ctx context.Context, caption, mediaRef string, publishAt *time.Time, destination string) (int64, error) {
	params := url.Values{
		"owner_id":    {"-" + destination},
		"from_group":  {"1"},
		"message":     {caption},
		"attachments": {mediaRef},
	}
	if publishAt != nil {
		params.Set("publish_date", strconv.FormatInt(publishAt.Unix(), 10))
	}

	var created struct {
		PostID int64 `json:"post_id"`
	}
	if err := c.call(ctx, "wall.post", params, &created); err != nil {
		return 0, &PostError{Err: err}
	}

	attrs := []slog.Attr{
		slog.Int64("post_id", created.PostID),
		slog.String("group_id", destination),
	}
	if publishAt != nil {
		attrs = append(attrs, slog.Time("publish_at", *publishAt))
	}
	logger.Info(ctx, "vk", "post.created", attrs...)
	return created.PostID, nil
}

// ResolveShareURL builds the public link to a wall post from the group's
// screen name.
func (c *Client) ResolveShareURL(ctx context.Context, destination string, postID int64) (string, error) {
	var groups []struct {
		ScreenName string `json:"screen_name"`
	}
	params := url.Values{"group_id": {destination}}
	if err := c.call(ctx, "groups.getById", params, &groups); err != nil {
		return "", &PostError{Err: err}
	}
	if len(groups) == 0 || groups[0].ScreenName == "" {
		return "", &PostError{Err: fmt.Errorf("groups.getById: no screen name for group %s", destination)}
	}
	return fmt.Sprintf("https://vk.com/%s?w=wall-%s_%d", groups[0].ScreenName, destination, postID), nil
}
