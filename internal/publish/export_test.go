package publish

import (
	"github.com/book-expert/events"
	"github.com/nats-io/nats.go/jetstream"
)

func ObjectKeyForTest(tenantID, workflowID, pdfPath string) string {
	return objectKey(tenantID, workflowID, pdfPath)
}

func NewPDFCreatedEventForTest(cfg *Config, workflowID, objectName string) events.PDFCreatedEvent {
	return newPDFCreatedEvent(cfg, workflowID, objectName)
}

func NewStreamConfigForTest(name, subject string) jetstream.StreamConfig {
	return newStreamConfig(name, subject)
}

func (cfg *Config) ApplyDefaultsForTest() { cfg.applyDefaults() }
