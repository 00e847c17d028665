package queue

import (
	"errors"
	"testing"

	"github.com/paperflow-ai/paperflow/pkg/loader"
	"github.com/paperflow-ai/paperflow/pkg/loader/csv"
	"github.com/paperflow-ai/paperflow/pkg/loader/doc"
	"github.com/paperflow-ai/paperflow/pkg/loader/pdf"
	s3loader "github.com/paperflow-ai/paperflow/pkg/loader/s3"
	"github.com/paperflow-ai/paperflow/pkg/loader/web"
	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

func TestBuildDocumentFile_SelectsLoaderByExtension(t *testing.T) {
	tests := []struct {
		name       string
		msg        ExtractPaperMsg
		wantKind   loader.FileKind
		wantLoader any
	}{
		{
			name:       "pdf standard",
			msg:        ExtractPaperMsg{PaperID: "p1", FileKey: "papers/p1.pdf", Extractor: ExtractorStandard},
			wantKind:   loader.FileKindDocument,
			wantLoader: &pdf.PDFLoader{},
		},
		{
			name:       "pdf ocr",
			msg:        ExtractPaperMsg{PaperID: "p1", FileKey: "papers/p1.pdf", Extractor: ExtractorOCR},
			wantKind:   loader.FileKindDocument,
			wantLoader: &pdf.PDFLoader{},
		},
		{
			name:       "docx",
			msg:        ExtractPaperMsg{PaperID: "p1", FileKey: "papers/p1.docx", Extractor: ExtractorStandard},
			wantKind:   loader.FileKindDocument,
			wantLoader: &doc.DocLoader{},
		},
		{
			name:       "csv",
			msg:        ExtractPaperMsg{PaperID: "p1", FileKey: "papers/p1.csv", Extractor: ExtractorStandard},
			wantKind:   loader.FileKindCSV,
			wantLoader: &csv.CSVLoader{},
		},
		{
			name:       "markdown read as-is",
			msg:        ExtractPaperMsg{PaperID: "p1", FileKey: "papers/p1.md", Extractor: ExtractorStandard},
			wantKind:   loader.FileKindDocument,
			wantLoader: &s3loader.S3FileLoader{},
		},
		{
			name:       "url uses web loader",
			msg:        ExtractPaperMsg{PaperID: "p1", SourceURL: "https://example.org/paper", Extractor: ExtractorStandard},
			wantKind:   loader.FileKindDocument,
			wantLoader: &web.WebLoader{},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			file := buildDocumentFile(nil, nil, &test.msg)

			if file.Kind != test.wantKind {
				t.Fatalf("Kind = %s, want %s", file.Kind, test.wantKind)
			}
			if file.ID != "p1" {
				t.Fatalf("ID = %s, want p1", file.ID)
			}

			switch test.wantLoader.(type) {
			case *pdf.PDFLoader:
				if _, ok := file.Loader.(*pdf.PDFLoader); !ok {
					t.Fatalf("Loader = %T, want *pdf.PDFLoader", file.Loader)
				}
			case *doc.DocLoader:
				if _, ok := file.Loader.(*doc.DocLoader); !ok {
					t.Fatalf("Loader = %T, want *doc.DocLoader", file.Loader)
				}
			case *csv.CSVLoader:
				if _, ok := file.Loader.(*csv.CSVLoader); !ok {
					t.Fatalf("Loader = %T, want *csv.CSVLoader", file.Loader)
				}
			case *s3loader.S3FileLoader:
				if _, ok := file.Loader.(*s3loader.S3FileLoader); !ok {
					t.Fatalf("Loader = %T, want *s3.S3FileLoader", file.Loader)
				}
			case *web.WebLoader:
				if _, ok := file.Loader.(*web.WebLoader); !ok {
					t.Fatalf("Loader = %T, want *web.WebLoader", file.Loader)
				}
			}
		})
	}
}

func TestAsStageError(t *testing.T) {
	diagnosed := workflow.NewStageError(workflow.ErrTypeContentTooShort, "too short")
	if got := asStageError(diagnosed); got != diagnosed {
		t.Fatalf("asStageError() = %+v, want the original stage error", got)
	}

	plain := errors.New("connection refused")
	got := asStageError(plain)
	if got.Type != workflow.ErrTypeInternal {
		t.Fatalf("Type = %s, want INTERNAL_ERROR", got.Type)
	}
	if got.Message != "connection refused" {
		t.Fatalf("Message = %q", got.Message)
	}
}
