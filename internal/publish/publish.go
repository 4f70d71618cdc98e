// Package publish hands finished PDFs to the book-expert pipeline: each file
// is stored in a JetStream object store and announced with a PDFCreatedEvent.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrURLRequired is returned when no NATS server URL is configured.
var ErrURLRequired = errors.New("nats url is required")

// Config holds NATS-specific configuration for publishing PDFs.
type Config struct {
	URL                  string `toml:"url"`
	PDFStreamName        string `toml:"pdf_stream_name"`
	PDFCreatedSubject    string `toml:"pdf_created_subject"`
	PDFObjectStoreBucket string `toml:"pdf_object_store_bucket"`
	TenantID             string `toml:"tenant_id"`
	UserID               string `toml:"user_id"`
}

const (
	defaultStreamName = "PDF_CREATED"
	defaultSubject    = "pdf.created"
	defaultBucket     = "pdfs"
	connectTimeout    = 5 * time.Second
)

// Enabled reports whether publishing was configured at all.
func (cfg *Config) Enabled() bool {
	return cfg.URL != ""
}

func (cfg *Config) applyDefaults() {
	if cfg.PDFStreamName == "" {
		cfg.PDFStreamName = defaultStreamName
	}

	if cfg.PDFCreatedSubject == "" {
		cfg.PDFCreatedSubject = defaultSubject
	}

	if cfg.PDFObjectStoreBucket == "" {
		cfg.PDFObjectStoreBucket = defaultBucket
	}
}

// Publisher uploads PDFs and publishes one event per file. A Publisher
// belongs to a single batch run; all its events share one workflow ID.
type Publisher struct {
	conn       *nats.Conn
	jetStream  jetstream.JetStream
	store      jetstream.ObjectStore
	log        *logger.Logger
	cfg        Config
	workflowID string
}

// New connects to NATS and makes sure the stream and object store exist.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrURLRequired
	}

	cfg.applyDefaults()

	natsConnection, connErr := nats.Connect(cfg.URL, nats.Timeout(connectTimeout))
	if connErr != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", connErr)
	}

	log.Info("Connected to NATS server at %s", natsConnection.ConnectedUrl())

	jetStream, jsErr := jetstream.New(natsConnection)
	if jsErr != nil {
		natsConnection.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", jsErr)
	}

	store, setupErr := setupJetStream(ctx, jetStream, &cfg)
	if setupErr != nil {
		natsConnection.Close()

		return nil, fmt.Errorf("failed to set up JetStream resources: %w", setupErr)
	}

	return &Publisher{
		conn:       natsConnection,
		jetStream:  jetStream,
		store:      store,
		log:        log,
		cfg:        cfg,
		workflowID: uuid.New().String(),
	}, nil
}

// setupJetStream ensures the PDF stream and object store exist and binds
// to the store.
func setupJetStream(
	ctx context.Context,
	jetStream jetstream.JetStream,
	cfg *Config,
) (jetstream.ObjectStore, error) {
	_, streamErr := jetStream.CreateStream(ctx, newStreamConfig(cfg.PDFStreamName, cfg.PDFCreatedSubject))
	if streamErr != nil && !errors.Is(streamErr, jetstream.ErrStreamNameAlreadyInUse) {
		return nil, fmt.Errorf("failed to create PDF stream: %w", streamErr)
	}

	_, storeErr := jetStream.CreateObjectStore(ctx, newObjectStoreConfig(cfg.PDFObjectStoreBucket))
	if storeErr != nil && !errors.Is(storeErr, jetstream.ErrBucketExists) {
		return nil, fmt.Errorf(
			"failed to create object store '%s': %w",
			cfg.PDFObjectStoreBucket,
			storeErr,
		)
	}

	store, bindErr := jetStream.ObjectStore(ctx, cfg.PDFObjectStoreBucket)
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind to PDF object store: %w", bindErr)
	}

	return store, nil
}

func newStreamConfig(name, subject string) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{subject},
		Retention: jetstream.WorkQueuePolicy,
		MaxMsgs:   -1,
		MaxBytes:  -1,
		Discard:   jetstream.DiscardOld,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	}
}

func newObjectStoreConfig(bucket string) jetstream.ObjectStoreConfig {
	return jetstream.ObjectStoreConfig{
		Bucket:   bucket,
		MaxBytes: -1,
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	}
}

// PDFCreated uploads pdfPath and publishes the matching event.
func (publisher *Publisher) PDFCreated(ctx context.Context, folderName, pdfPath string) error {
	objectName := objectKey(publisher.cfg.TenantID, publisher.workflowID, pdfPath)

	uploadErr := uploadFileToObjectStore(ctx, publisher.store, objectName, pdfPath)
	if uploadErr != nil {
		return uploadErr
	}

	publisher.log.Info("Uploaded '%s' for folder %s", objectName, folderName)

	payload, marshalErr := json.Marshal(newPDFCreatedEvent(&publisher.cfg, publisher.workflowID, objectName))
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal PDFCreatedEvent: %w", marshalErr)
	}

	_, pubErr := publisher.jetStream.Publish(ctx, publisher.cfg.PDFCreatedSubject, payload)
	if pubErr != nil {
		return fmt.Errorf("failed to publish PDFCreatedEvent: %w", pubErr)
	}

	publisher.log.Success("Published PDFCreatedEvent for '%s'", objectName)

	return nil
}

// Close drains and closes the NATS connection.
func (publisher *Publisher) Close() error {
	drainErr := publisher.conn.Drain()
	if drainErr != nil {
		publisher.conn.Close()

		return fmt.Errorf("failed to drain NATS connection: %w", drainErr)
	}

	return nil
}

// objectKey places a PDF under its tenant and workflow, e.g.
// 'acme/<workflow>/vol_01.pdf'. An empty tenant drops that segment.
func objectKey(tenantID, workflowID, pdfPath string) string {
	name := filepath.Base(pdfPath)
	if tenantID == "" {
		return workflowID + "/" + name
	}

	return tenantID + "/" + workflowID + "/" + name
}

func newPDFCreatedEvent(cfg *Config, workflowID, objectName string) events.PDFCreatedEvent {
	return events.PDFCreatedEvent{
		Header: events.EventHeader{
			WorkflowID: workflowID,
			UserID:     cfg.UserID,
			TenantID:   cfg.TenantID,
			EventID:    uuid.New().String(),
			Timestamp:  time.Now(),
		},
		PDFKey: objectName,
	}
}

func uploadFileToObjectStore(
	ctx context.Context,
	store jetstream.ObjectStore,
	objectName, filePath string,
) error {
	file, openErr := os.Open(filePath) // #nosec G304 -- file was just written by this run
	if openErr != nil {
		return fmt.Errorf("failed to open file for upload: %w", openErr)
	}

	defer func() { _ = file.Close() }()

	meta := jetstream.ObjectMeta{
		Name:        objectName,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
	}

	_, putErr := store.Put(ctx, meta, file)
	if putErr != nil {
		return fmt.Errorf("failed to put file in object store: %w", putErr)
	}

	return nil
}
