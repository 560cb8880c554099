package publish

import (
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

type receivedUpload struct {
	auth        string
	token       string
	filename    string
	contentType string
	body        string
}

func uploadServer(t *testing.T, status int, got *receivedUpload) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		got.auth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		got.token = r.FormValue("token")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
		} else {
			data, _ := io.ReadAll(file)
			got.filename = header.Filename
			got.contentType = header.Header.Get("Content-Type")
			got.body = string(data)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPublisher_Publish(t *testing.T) {
	var got receivedUpload
	srv := uploadServer(t, http.StatusCreated, &got)

	pub := NewPublisher(srv.URL, "secret", srv.Client(), logger.Discard())
	if err := pub.Publish(context.Background(), models.NewBatchArtifact(), []byte("xlsx-bytes")); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	want := receivedUpload{
		auth:        "Bearer secret",
		token:       "secret",
		filename:    "all_extracted_data.xlsx",
		contentType: ContentTypeXLSX,
		body:        "xlsx-bytes",
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(receivedUpload{})); diff != "" {
		t.Errorf("Upload mismatch (-want +got):\n%s", diff)
	}
}

func TestUploader_Rejected(t *testing.T) {
	var got receivedUpload
	srv := uploadServer(t, http.StatusForbidden, &got)

	up := NewUploader(srv.URL, "secret", srv.Client(), logger.Discard())
	err := up.Upload(context.Background(), "img_1.jpg", ContentTypeJPEG, []byte("jpeg"))
	if err == nil {
		t.Fatal("Expected error for 403")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
		t.Errorf("Expected network error, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("Expected status code in error, got %v", err)
	}
}

func TestUploader_NoURL(t *testing.T) {
	err := NewUploader("", "t", nil, logger.Discard()).Upload(context.Background(), "a", "b", nil)
	if !apperrors.IsType(err, apperrors.ErrorTypeConfig) {
		t.Errorf("Expected config error, got %v", err)
	}
}

func TestStatusClient_HasUnprocessed(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"bare true", http.StatusOK, "true", true},
		{"bare false", http.StatusOK, "false", false},
		{"object true", http.StatusOK, `{"unprocessed": true}`, true},
		{"object false", http.StatusOK, `{"unprocessed": false, "count": 0}`, false},
		{"object without field", http.StatusOK, `{"count": 3}`, false},
		{"garbage", http.StatusOK, "yes please", false},
		{"server error", http.StatusInternalServerError, "true", false},
		{"unauthorized", http.StatusUnauthorized, "true", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("Expected bearer token, got %q", got)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewStatusClient(srv.URL, "tok", srv.Client(), logger.Discard())
			if got := c.HasUnprocessed(context.Background()); got != tt.want {
				t.Errorf("HasUnprocessed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewStatusClient(url, "", nil, logger.Discard())
	if c.HasUnprocessed(context.Background()) {
		t.Error("Expected false for an unreachable endpoint")
	}
	if NewStatusClient("", "", nil, logger.Discard()).HasUnprocessed(context.Background()) {
		t.Error("Expected false without a URL")
	}
}

type memoryBlobs struct {
	puts map[string][]byte
	err  error
}

func (m *memoryBlobs) GetImage(ctx context.Context, container, blob string) (image.Image, error) {
	return nil, errors.New("not implemented")
}

func (m *memoryBlobs) PutBlob(ctx context.Context, container, blob string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.puts[container+"/"+blob] = data
	return nil
}

func TestArchiver_Publish(t *testing.T) {
	blobs := &memoryBlobs{puts: make(map[string][]byte)}
	a := models.NewBatchArtifact()
	a.RunID = uuid.MustParse("11111111-2222-3333-4444-555555555555")
	a.StartedAt = time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)

	arch := NewArchiver(blobs, "workbooks", logger.Discard())
	if err := arch.Publish(context.Background(), a, []byte("wb")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := map[string][]byte{
		"workbooks/runs/2024-03-09/11111111-2222-3333-4444-555555555555.xlsx": []byte("wb"),
	}
	if diff := cmp.Diff(want, blobs.puts); diff != "" {
		t.Errorf("Blob mismatch (-want +got):\n%s", diff)
	}

	blobs.err = errors.New("down")
	if err := arch.Publish(context.Background(), a, []byte("wb")); err == nil {
		t.Error("Expected blob failure to surface")
	}
}
