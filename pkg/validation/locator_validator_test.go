package validation

import (
	"errors"
	"testing"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
)

func TestClassify_ValidLocators(t *testing.T) {
	validator := NewLocatorValidator()

	tests := []struct {
		locator string
		want    LocatorKind
	}{
		{"/data/photos/First_photo_used.png", LocatorFile},
		{"photos/overview_page.jpeg", LocatorFile},
		{"file:///data/photos/drittes-foto.jpg", LocatorFile},
		{"http://192.168.1.1/image.jpg", LocatorHTTP},
		{"https://example.com/api/frontend/image/?id=2&most_recent", LocatorHTTP},
		{"azblob://panels/site1/overview.jpg", LocatorBlob},
	}

	for _, tt := range tests {
		got, err := validator.Classify(tt.locator)
		if err != nil {
			t.Errorf("Expected %s to be valid, got error: %v", tt.locator, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Classify(%s) = %s, want %s", tt.locator, got, tt.want)
		}
	}
}

func TestClassify_Invalid(t *testing.T) {
	validator := NewLocatorValidator()

	tests := []struct {
		locator string
		message string
	}{
		{"", "locator cannot be empty"},
		{"   ", "locator cannot be empty"},
		{"ftp://example.com/image.jpg", "locator scheme not allowed"},
		{"http://", "URL must have a valid host"},
		{"http:///path", "URL must have a valid host"},
		{"azblob://container", "blob locator needs a container and a blob name"},
		{"file://", "file locator must have a path"},
	}

	for _, tt := range tests {
		err := validator.Validate(tt.locator)
		if err == nil {
			t.Errorf("Expected %q to fail validation", tt.locator)
			continue
		}
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			t.Errorf("Expected AppError, got: %T", err)
			continue
		}
		if appErr.Message != tt.message {
			t.Errorf("Validate(%q) message = %q, want %q", tt.locator, appErr.Message, tt.message)
		}
		if appErr.Type != apperrors.ErrorTypeValidation {
			t.Errorf("Expected validation error type, got %s", appErr.Type)
		}
	}
}

func TestClassify_RestrictedHosts(t *testing.T) {
	validator := NewLocatorValidatorWithOptions([]string{"http", "https"}, []string{"example.com"})

	if err := validator.Validate("https://example.com/image.png"); err != nil {
		t.Errorf("Expected allowed host to pass, got %v", err)
	}
	if err := validator.Validate("https://example.com:8443/image.png"); err != nil {
		t.Errorf("Expected allowed host with port to pass, got %v", err)
	}
	if err := validator.Validate("http://malicious.com/image.jpg"); err == nil {
		t.Error("Expected disallowed host to fail")
	}
	if err := validator.Validate("/local/file.jpg"); err == nil {
		t.Error("Expected plain paths to fail when file is not allowed")
	}
}

func TestFilePath(t *testing.T) {
	tests := map[string]string{
		"/data/a.jpg":        "/data/a.jpg",
		"file:///data/a.jpg": "/data/a.jpg",
		" rel/b.png ":        "rel/b.png",
	}
	for in, want := range tests {
		if got := FilePath(in); got != want {
			t.Errorf("FilePath(%q) = %q, want %q", in, got, want)
		}
	}
}
