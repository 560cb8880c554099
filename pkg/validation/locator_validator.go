package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
)

// LocatorKind says where an image locator points.
type LocatorKind string

const (
	LocatorFile LocatorKind = "file"
	LocatorHTTP LocatorKind = "http"
	LocatorBlob LocatorKind = "azblob"
)

// LocatorValidator handles image locator validation
type LocatorValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewLocatorValidator accepts local paths, file://, http(s):// and azblob:// locators
func NewLocatorValidator() *LocatorValidator {
	return &LocatorValidator{
		allowedSchemes: []string{"file", "http", "https", "azblob"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewLocatorValidatorWithOptions creates a validator with custom options.
// Host restrictions apply to http(s) locators only.
func NewLocatorValidatorWithOptions(schemes []string, hosts []string) *LocatorValidator {
	return &LocatorValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// Classify validates locator and reports its kind
func (v *LocatorValidator) Classify(locator string) (LocatorKind, error) {
	locator = strings.TrimSpace(locator)
	if locator == "" {
		return "", apperrors.NewValidationError("locator cannot be empty", nil)
	}

	// Anything without a scheme separator is a plain filesystem path.
	if !strings.Contains(locator, "://") {
		if !v.isSchemeAllowed("file") {
			return "", apperrors.NewValidationError("locator scheme not allowed", nil)
		}
		return LocatorFile, nil
	}

	parsed, err := url.Parse(locator)
	if err != nil {
		return "", apperrors.NewValidationError("invalid locator format", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if !v.isSchemeAllowed(scheme) {
		return "", apperrors.NewValidationError("locator scheme not allowed", nil)
	}

	switch scheme {
	case "file":
		if parsed.Path == "" {
			return "", apperrors.NewValidationError("file locator must have a path", nil)
		}
		return LocatorFile, nil
	case "azblob":
		if parsed.Host == "" || strings.Trim(parsed.Path, "/") == "" {
			return "", apperrors.NewValidationError("blob locator needs a container and a blob name", nil)
		}
		return LocatorBlob, nil
	default:
		if parsed.Host == "" {
			return "", apperrors.NewValidationError("URL must have a valid host", nil)
		}
		if !v.isHostAllowed(parsed.Hostname()) {
			return "", apperrors.NewValidationError("URL host not allowed", nil)
		}
		return LocatorHTTP, nil
	}
}

// Validate returns nil when locator is acceptable
func (v *LocatorValidator) Validate(locator string) error {
	_, err := v.Classify(locator)
	return err
}

// FilePath returns the filesystem path of a file locator
func FilePath(locator string) string {
	locator = strings.TrimSpace(locator)
	if strings.HasPrefix(strings.ToLower(locator), "file://") {
		if u, err := url.Parse(locator); err == nil {
			return u.Path
		}
	}
	return locator
}

// isSchemeAllowed checks if the scheme is in the allowed list
func (v *LocatorValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *LocatorValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
