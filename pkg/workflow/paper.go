package workflow

import (
	"fmt"
	"time"
)

// PaperStatus is the lifecycle state of one processing run.
type PaperStatus string

const (
	StatusUploaded   PaperStatus = "uploaded"
	StatusProcessing PaperStatus = "processing"
	StatusCompleted  PaperStatus = "completed"
	StatusFailed     PaperStatus = "failed"
)

// Terminal reports whether s is a terminal state for a run.
func (s PaperStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Error taxonomy for failed runs. Fatal kinds set status=failed,
// RELATIONSHIP_MAPPING_FAILED only degrades the output.
const (
	ErrTypeIngestionFailed           = "INGESTION_FAILED"
	ErrTypeContentTooShort           = "CONTENT_TOO_SHORT"
	ErrTypeExtractionFailed          = "EXTRACTION_FAILED"
	ErrTypeRelationshipMappingFailed = "RELATIONSHIP_MAPPING_FAILED"
	ErrTypeInternal                  = "INTERNAL_ERROR"
	ErrTypeNotFound                  = "NOT_FOUND"
)

// StageError is a diagnosed failure of one pipeline stage.
type StageError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewStageError creates a StageError with a formatted message.
func NewStageError(errType string, format string, args ...any) *StageError {
	return &StageError{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Paper is one processing run of an uploaded document.
type Paper struct {
	ID          string      `json:"id"`
	Title       string      `json:"title,omitempty"`
	Overview    string      `json:"overview,omitempty"`
	Filename    string      `json:"filename,omitempty"`
	ContentType string      `json:"content_type,omitempty"`
	FileKey     string      `json:"file_key,omitempty"`
	ByteSize    int64       `json:"byte_size,omitempty"`
	Status      PaperStatus `json:"status"`

	ErrorMessage string       `json:"error_message,omitempty"`
	ErrorDetails *StageError  `json:"error_details,omitempty"`
	Diagnostics  *Diagnostics `json:"diagnostics,omitempty"`

	Components    []Component    `json:"components,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty"`

	UploadedAt  time.Time  `json:"uploaded_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
