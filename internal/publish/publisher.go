package publish

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/export"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/storage"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// WorkbookPublisher delivers a rendered workbook somewhere
type WorkbookPublisher interface {
	Publish(ctx context.Context, artifact *models.BatchArtifact, workbook []byte) error
}

// Publisher uploads workbooks to the dashboard endpoint
type Publisher struct {
	uploader *Uploader
}

// NewPublisher creates a publisher for url
func NewPublisher(url, token string, client *http.Client, log logrus.FieldLogger) *Publisher {
	return &Publisher{uploader: NewUploader(url, token, client, log)}
}

// Publish uploads the workbook as all_extracted_data.xlsx
func (p *Publisher) Publish(ctx context.Context, artifact *models.BatchArtifact, workbook []byte) error {
	return p.uploader.Upload(ctx, export.WorkbookFileName, ContentTypeXLSX, workbook)
}

// Archiver keeps a copy of every published workbook in blob storage
type Archiver struct {
	blobs     storage.BlobStorage
	container string
	log       logrus.FieldLogger
}

// NewArchiver creates an archiver writing to container
func NewArchiver(blobs storage.BlobStorage, container string, log logrus.FieldLogger) *Archiver {
	return &Archiver{blobs: blobs, container: container, log: logger.OrDefault(log)}
}

// BlobName returns runs/<yyyy-mm-dd>/<run id>.xlsx
func BlobName(artifact *models.BatchArtifact) string {
	day := artifact.StartedAt.UTC().Format(time.DateOnly)
	return fmt.Sprintf("runs/%s/%s.xlsx", day, artifact.RunID)
}

// Publish stores the workbook under BlobName
func (a *Archiver) Publish(ctx context.Context, artifact *models.BatchArtifact, workbook []byte) error {
	name := BlobName(artifact)
	if err := a.blobs.PutBlob(ctx, a.container, name, workbook); err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"run_id":    artifact.RunID.String(),
		"container": a.container,
		"blob":      name,
	}).Info("Workbook archived")
	return nil
}
