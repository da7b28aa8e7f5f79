package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/2beens/gymplan/internal/telemetry/metrics"
	"github.com/2beens/gymplan/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	RootBackupsFolderName = "gymplan-backup"

	folderMimeType = "application/vnd.google-apps.folder"
)

// driveFiles is the part of google drive the exporter needs.
type driveFiles interface {
	FindFolder(ctx context.Context, name string) (string, error)
	CreateFolder(ctx context.Context, name string) (string, error)
	Upload(ctx context.Context, folderID, name string, content io.Reader) (string, error)
}

type DriveExporter struct {
	files          driveFiles
	source         documentSource
	metricsManager *metrics.Manager
	folderID       string
}

// NewDriveExporter connects to google drive with service account credentials.
func NewDriveExporter(
	ctx context.Context,
	credentialsJson []byte,
	source documentSource,
	metricsManager *metrics.Manager,
) (*DriveExporter, error) {
	// https://github.com/googleapis/google-api-go-client/blob/master/drive/v3/drive-gen.go
	driveService, err := drive.NewService(ctx, option.WithCredentialsJSON(credentialsJson))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve drive client: %w", err)
	}
	return newDriveExporter(NewDriveFiles(driveService), source, metricsManager), nil
}

func newDriveExporter(files driveFiles, source documentSource, metricsManager *metrics.Manager) *DriveExporter {
	return &DriveExporter{
		files:          files,
		source:         source,
		metricsManager: metricsManager,
	}
}

func (e *DriveExporter) backupsFolder(ctx context.Context) (string, error) {
	if e.folderID != "" {
		return e.folderID, nil
	}

	folderID, err := e.files.FindFolder(ctx, RootBackupsFolderName)
	if err != nil {
		return "", fmt.Errorf("find backups folder: %w", err)
	}
	if folderID == "" {
		log.Println("root backups folder not found, creating ...")
		folderID, err = e.files.CreateFolder(ctx, RootBackupsFolderName)
		if err != nil {
			return "", fmt.Errorf("failed to create root backups folder: %w", err)
		}
		log.Printf("new root backups folder created: %s", folderID)
	} else {
		log.Debugf("found backups folder ID: %s", folderID)
	}

	e.folderID = folderID
	return folderID, nil
}

func FileName(now time.Time) string {
	return fmt.Sprintf("gymplan-%s.json", now.UTC().Format("2006-01-02T15-04-05"))
}

// Export uploads one JSON snapshot of all plan documents and returns the drive file id.
func (e *DriveExporter) Export(ctx context.Context, now time.Time) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backup.export")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	defer func(begin time.Time) {
		if e.metricsManager != nil {
			e.metricsManager.HistBackupDuration.Observe(time.Since(begin).Seconds())
		}
	}(time.Now())

	snapshot, err := TakeSnapshot(ctx, e.source, now)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int("backup.documents", len(snapshot.Documents)))

	snapshotJson, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	folderID, err := e.backupsFolder(ctx)
	if err != nil {
		return "", err
	}

	name := FileName(now)
	fileID, err := e.files.Upload(ctx, folderID, name, bytes.NewReader(snapshotJson))
	if err != nil {
		return "", fmt.Errorf("%s: failed to create backup file: %w", name, err)
	}

	log.Printf("backup of %d documents saved: %s (%s)", len(snapshot.Documents), name, fileID)
	return fileID, nil
}

// DriveFiles implements driveFiles on top of the drive v3 API.
type DriveFiles struct {
	service *drive.Service
}

func NewDriveFiles(service *drive.Service) *DriveFiles {
	return &DriveFiles{
		service: service,
	}
}

func (d *DriveFiles) FindFolder(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("mimeType = '%s' and trashed = false and name = '%s'", folderMimeType, name)
	folders, err := d.service.
		Files.List().
		Q(query).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve files: %w", err)
	}

	switch len(folders.Files) {
	case 0:
		return "", nil
	case 1:
		return folders.Files[0].Id, nil
	default:
		log.Warnf("found %d root backups folders, will take the first one: %s", len(folders.Files), folders.Files[0].Id)
		return folders.Files[0].Id, nil
	}
}

func (d *DriveFiles) CreateFolder(ctx context.Context, name string) (string, error) {
	folderMeta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}

	folder, err := d.service.
		Files.Create(folderMeta).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return folder.Id, nil
}

func (d *DriveFiles) Upload(ctx context.Context, folderID, name string, content io.Reader) (string, error) {
	fileMeta := &drive.File{
		Name:     name,
		MimeType: "application/json",
		Parents:  []string{folderID},
	}

	file, err := d.service.
		Files.Create(fileMeta).
		Fields("id, parents").
		Media(content).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return file.Id, nil
}
