package pdfbuild

import (
	"errors"
	"time"
)

var (
	// ErrNoImages is returned when a folder holds no eligible image files.
	ErrNoImages = errors.New("no JPG images found")
	// ErrDocumentWrite is returned when the output PDF cannot be created or
	// finalized.
	ErrDocumentWrite = errors.New("could not write PDF document")
	// ErrNoPagesDrawn is returned when every image of a folder failed.
	ErrNoPagesDrawn = errors.New("no image could be placed in the document")
)

// Status classifies how a folder job ended.
type Status int

const (
	StatusSuccess Status = iota
	StatusSkipped
	StatusFailed
)

func (status Status) String() string {
	switch status {
	case StatusSuccess:
		return "success"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of converting one folder.
type Outcome struct {
	Folder     string
	OutputPath string
	Reason     string
	Status     Status
	Elapsed    time.Duration
	OutputSize int64 // bytes, Success only
	Attempted  int
	Errored    int
}

// Summary aggregates the outcomes of one batch run.
type Summary struct {
	OutputDir    string
	Outcomes     []Outcome
	Elapsed      time.Duration
	Succeeded    int
	Skipped      int
	Failed       int
	InputCreated bool
}

// Add folds one outcome into the summary.
func (summary *Summary) Add(outcome Outcome) {
	switch outcome.Status {
	case StatusSuccess:
		summary.Succeeded++
	case StatusSkipped:
		summary.Skipped++
	case StatusFailed:
		summary.Failed++
	}

	summary.Outcomes = append(summary.Outcomes, outcome)
}

// Total is the number of folders the summary accounts for.
func (summary *Summary) Total() int {
	return summary.Succeeded + summary.Skipped + summary.Failed
}
