package loader

import (
	"context"
)

type FileKind string

const (
	FileKindImage    FileKind = "image"
	FileKindDocument FileKind = "document"
	FileKindCSV      FileKind = "csv"
)

// Base64File holds base64-encoded file content together with its data-URL
// prefix (e.g. "data:application/pdf;base64,").
type Base64File struct {
	Base64   string `json:"base64"`
	FileType string `json:"file_type"`
}

// DocumentFile represents a source document that can be turned into text for
// the extraction pipeline. The actual content is retrieved via the associated
// FileLoader.
type DocumentFile struct {
	ID        string
	FilePath  string
	Kind      FileKind
	MaxTokens int
	Loader    FileLoader
}

// NewDocumentFileParams defines the input parameters for creating a new
// DocumentFile instance.
type NewDocumentFileParams struct {
	ID        string
	FilePath  string
	MaxTokens int
	Loader    FileLoader
}

// NewImageFile creates a DocumentFile of kind FileKindImage. This is used for
// scanned pages or figures that require OCR processing.
func NewImageFile(params NewDocumentFileParams) DocumentFile {
	return DocumentFile{
		ID:        params.ID,
		FilePath:  params.FilePath,
		Kind:      FileKindImage,
		MaxTokens: params.MaxTokens,
		Loader:    params.Loader,
	}
}

// NewDocumentFile creates a DocumentFile of kind FileKindDocument. This is
// used for text-based documents such as PDFs, Word files, or plain text.
func NewDocumentFile(params NewDocumentFileParams) DocumentFile {
	return DocumentFile{
		ID:        params.ID,
		FilePath:  params.FilePath,
		Kind:      FileKindDocument,
		MaxTokens: params.MaxTokens,
		Loader:    params.Loader,
	}
}

// NewCSVFile creates a DocumentFile of kind FileKindCSV.
func NewCSVFile(params NewDocumentFileParams) DocumentFile {
	return DocumentFile{
		ID:        params.ID,
		FilePath:  params.FilePath,
		Kind:      FileKindCSV,
		MaxTokens: params.MaxTokens,
		Loader:    params.Loader,
	}
}

// GetText retrieves the raw text content of the file using its Loader.
func (f *DocumentFile) GetText(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileText(ctx, *f)
}

// GetBase64 retrieves the base64-encoded content of the file using its
// Loader. This is useful for transmitting binary file contents in a
// text-safe format.
func (f *DocumentFile) GetBase64(ctx context.Context) (Base64File, error) {
	return f.Loader.GetBase64(ctx, *f)
}

// FileLoader defines the interface for loading the contents of a
// DocumentFile. Implementations may load files from disk, object storage, or
// other sources.
type FileLoader interface {
	GetFileText(ctx context.Context, file DocumentFile) ([]byte, error)
	GetBase64(ctx context.Context, file DocumentFile) (Base64File, error)
}
