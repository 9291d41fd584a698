// Package sync backs up the full application snapshot to a single file in a
// GitHub repository through the contents API. The payload is JSON encoded
// as base64 on the wire; the round trip preserves UTF-8 text byte for byte.
package sync

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/conversation"
	perrors "github.com/parleyhq/parley/internal/errors"
	"github.com/parleyhq/parley/internal/settings"
)

// BackupFileName is the fixed path of the backup inside the repository.
const BackupFileName = "conversation-assist-backup.json"

// BackupVersion is the current backup document version.
const BackupVersion = 1

// Backup is the full snapshot written to the repository.
type Backup struct {
	Conversations map[string]conversation.Conversation `json:"conversations"`
	Tags          map[string]conversation.Tag          `json:"tags"`
	ActiveID      *string                              `json:"activeId"`
	Settings      settings.Settings                    `json:"settings"`
	Timestamp     string                               `json:"timestamp"`
	Version       int                                  `json:"version"`
}

// Service talks to one repository's contents API.
type Service struct {
	token   string
	owner   string
	repo    string
	baseURL string
	client  *http.Client
}

// NewService builds a Service for the given repository. The default API
// base is https://api.github.com.
func NewService(token, owner, repo string) *Service {
	return &Service{
		token:   token,
		owner:   owner,
		repo:    repo,
		baseURL: "https://api.github.com",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewServiceFromConfig builds a Service from stored sync settings.
func NewServiceFromConfig(cfg settings.SyncConfig) *Service {
	return NewService(cfg.GithubToken, cfg.GithubUsername, cfg.GithubRepo)
}

// WithBaseURL points the service at a different API host. Used in tests.
func (s *Service) WithBaseURL(baseURL string) *Service {
	s.baseURL = strings.TrimRight(baseURL, "/")
	return s
}

func (s *Service) contentsURL() string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.baseURL, s.owner, s.repo, BackupFileName)
}

func (s *Service) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.contentsURL(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Upload writes the backup, replacing any previous file. The existing
// file's sha is fetched first because the contents API requires it for
// updates; a failed sha lookup is treated as "file absent".
func (s *Service) Upload(ctx context.Context, backup Backup) error {
	sha := s.currentSHA(ctx)

	content, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return perrors.NewInternal(err)
	}

	payload := map[string]any{
		"message": "Sync: " + time.Now().UTC().Format(time.RFC3339),
		"content": base64.StdEncoding.EncodeToString(content),
	}
	if sha != "" {
		payload["sha"] = sha
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return perrors.NewInternal(err)
	}

	req, err := s.newRequest(ctx, http.MethodPut, bytes.NewReader(body))
	if err != nil {
		return perrors.NewInternal(err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return perrors.NewSyncFailed("backup upload failed: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return perrors.NewSyncFailed(fmt.Sprintf("GitHub API error: %d %s", resp.StatusCode, string(text)))
	}
	return nil
}

func (s *Service) currentSHA(ctx context.Context) string {
	req, err := s.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return ""
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	var file struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return ""
	}
	return file.SHA
}

// Download fetches and decodes the backup. A missing file returns
// (nil, nil).
func (s *Service) Download(ctx context.Context) (*Backup, error) {
	req, err := s.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, perrors.NewInternal(err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, perrors.NewSyncFailed("backup download failed: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, perrors.NewSyncFailed(fmt.Sprintf("GitHub API error: %d %s", resp.StatusCode, string(text)))
	}

	var file struct {
		Encoding string `json:"encoding"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, perrors.NewSyncFailed("unreadable contents response: " + err.Error())
	}
	if file.Encoding != "base64" {
		return nil, perrors.NewSyncFailed("unsupported encoding: " + file.Encoding)
	}

	// The contents API wraps base64 at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(stripWhitespace(file.Content))
	if err != nil {
		return nil, perrors.NewSyncFailed("corrupt base64 payload: " + err.Error())
	}
	var backup Backup
	if err := json.Unmarshal(raw, &backup); err != nil {
		return nil, perrors.NewSyncFailed("corrupt backup document: " + err.Error())
	}
	return &backup, nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)
}

// NewBackup assembles a backup document from the current snapshots.
func NewBackup(conversations map[string]conversation.Conversation, tags map[string]conversation.Tag, activeID string, s settings.Settings) Backup {
	backup := Backup{
		Conversations: conversations,
		Tags:          tags,
		Settings:      s,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       BackupVersion,
	}
	if activeID != "" {
		id := activeID
		backup.ActiveID = &id
	}
	return backup
}
