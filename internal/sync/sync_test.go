package sync

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/conversation"
	perrors "github.com/parleyhq/parley/internal/errors"
	"github.com/parleyhq/parley/internal/settings"
)

func testBackup() Backup {
	return NewBackup(
		map[string]conversation.Conversation{
			"c1": {
				ID:        "c1",
				Title:     "询价跟进",
				UpdatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				Feed: []conversation.FeedRow{
					{ID: "r1", Message: conversation.Message{Role: conversation.RolePartner, Content: "价格还能谈吗?"}},
				},
				ReplyLanguage: "auto",
				TonePresetID:  "business",
			},
		},
		map[string]conversation.Tag{"t1": {ID: "t1", Name: "供应商", Color: "#28a"}},
		"c1",
		settings.Default(),
	)
}

func TestUploadCreatesFile(t *testing.T) {
	var putBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/alice/backup/contents/"+BackupFileName, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("PUT /repos/alice/backup/contents/"+BackupFileName, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer ghp_test" {
			t.Errorf("authorization = %q", got)
		}
		json.NewDecoder(r.Body).Decode(&putBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	svc := NewService("ghp_test", "alice", "backup").WithBaseURL(ts.URL)
	if err := svc.Upload(context.Background(), testBackup()); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if _, hasSHA := putBody["sha"]; hasSHA {
		t.Error("fresh upload should not carry a sha")
	}
	raw, err := base64.StdEncoding.DecodeString(putBody["content"].(string))
	if err != nil {
		t.Fatalf("content is not base64: %v", err)
	}
	var decoded Backup
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("content is not a backup document: %v", err)
	}
	if decoded.Conversations["c1"].Feed[0].Message.Content != "价格还能谈吗?" {
		t.Error("UTF-8 content corrupted in upload")
	}
	if decoded.Version != BackupVersion {
		t.Errorf("version = %d", decoded.Version)
	}
}

func TestUploadReusesExistingSHA(t *testing.T) {
	var putBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/alice/backup/contents/"+BackupFileName, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sha":"abc123","encoding":"base64","content":""}`))
	})
	mux.HandleFunc("PUT /repos/alice/backup/contents/"+BackupFileName, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&putBody)
		w.Write([]byte(`{}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	svc := NewService("ghp_test", "alice", "backup").WithBaseURL(ts.URL)
	if err := svc.Upload(context.Background(), testBackup()); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if putBody["sha"] != "abc123" {
		t.Errorf("sha = %v, want abc123", putBody["sha"])
	}
}

func TestUploadErrorSurfacesStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/alice/backup/contents/"+BackupFileName, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("PUT /repos/alice/backup/contents/"+BackupFileName, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Invalid request"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	svc := NewService("ghp_test", "alice", "backup").WithBaseURL(ts.URL)
	err := svc.Upload(context.Background(), testBackup())
	if !perrors.Is(err, perrors.ErrSyncFailed) {
		t.Errorf("err = %v, want SYNC_FAILED", err)
	}
}

func TestDownloadRoundTrip(t *testing.T) {
	original := testBackup()
	content, err := json.MarshalIndent(original, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	// The contents API wraps base64 output at 60 columns.
	encoded := base64.StdEncoding.EncodeToString(content)
	wrapped := ""
	for len(encoded) > 60 {
		wrapped += encoded[:60] + "\n"
		encoded = encoded[60:]
	}
	wrapped += encoded

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/alice/backup/contents/"+BackupFileName, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"sha": "abc", "encoding": "base64", "content": wrapped}
		json.NewEncoder(w).Encode(resp)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	svc := NewService("ghp_test", "alice", "backup").WithBaseURL(ts.URL)
	got, err := svc.Download(context.Background())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got == nil {
		t.Fatal("backup = nil")
	}
	if got.Conversations["c1"].Feed[0].Message.Content != "价格还能谈吗?" {
		t.Error("UTF-8 content corrupted in download")
	}
	if got.ActiveID == nil || *got.ActiveID != "c1" {
		t.Errorf("activeId = %v", got.ActiveID)
	}
	if got.Tags["t1"].Name != "供应商" {
		t.Errorf("tag = %+v", got.Tags["t1"])
	}
}

func TestDownloadMissingFileIsNil(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	svc := NewService("ghp_test", "alice", "backup").WithBaseURL(ts.URL)
	got, err := svc.Download(context.Background())
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if got != nil {
		t.Errorf("backup = %+v, want nil for absent file", got)
	}
}

func TestDownloadRejectsUnknownEncoding(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sha":"abc","encoding":"utf-8","content":"{}"}`))
	}))
	defer ts.Close()

	svc := NewService("ghp_test", "alice", "backup").WithBaseURL(ts.URL)
	_, err := svc.Download(context.Background())
	if !perrors.Is(err, perrors.ErrSyncFailed) {
		t.Errorf("err = %v, want SYNC_FAILED", err)
	}
}
