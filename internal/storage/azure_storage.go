package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
)

// BlobScheme prefixes blob locators: azblob://<container>/<blob>.
const BlobScheme = "azblob"

type BlobStorage interface {
	GetImage(ctx context.Context, container, blob string) (image.Image, error)
	PutBlob(ctx context.Context, container, blob string, data []byte) error
}

type azureStorage struct {
	client *azblob.Client
}

func NewAzureStorage(accountName string, accountKey string) (BlobStorage, error) {
	if accountName == "" || accountKey == "" {
		return nil, apperrors.NewConfigError("azure account name and key are required", nil)
	}
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid azure credential", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to create azure client", err)
	}
	return &azureStorage{client: client}, nil
}

// ParseBlobLocator splits azblob://container/path/to/blob.
func ParseBlobLocator(locator string) (container, blob string, err error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob locator", err)
	}
	if u.Scheme != BlobScheme {
		return "", "", apperrors.NewValidationError("blob locator must use the azblob scheme", nil)
	}
	container = u.Host
	blob = strings.TrimPrefix(u.Path, "/")
	if container == "" || blob == "" {
		return "", "", apperrors.NewValidationError("blob locator needs a container and a blob name", nil)
	}
	return container, blob, nil
}

func (s *azureStorage) GetImage(ctx context.Context, container, blob string) (image.Image, error) {
	resp, err := s.client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}
	body := resp.Body
	defer body.Close()
	return DecodeImage(body)
}

func (s *azureStorage) PutBlob(ctx context.Context, container, blob string, data []byte) error {
	if _, err := s.client.UploadStream(ctx, container, blob, bytes.NewReader(data), nil); err != nil {
		return apperrors.NewNetworkError("blob upload failed", err)
	}
	return nil
}
