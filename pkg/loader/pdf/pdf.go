package pdf

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/paperflow-ai/paperflow/pkg/loader"
	"github.com/paperflow-ai/paperflow/pkg/loader/ocr"

	"golang.org/x/sync/singleflight"
)

// PDFLoader loads PDF files and extracts their text content.
// It supports optional OCR processing for scanned PDFs.
type PDFLoader struct {
	loader loader.FileLoader
	ocr    *ocr.OCRLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewPDFOcrLoader creates a PDF loader with OCR support for scanned documents.
func NewPDFOcrLoader(loader loader.FileLoader, ocr *ocr.OCRLoader) *PDFLoader {
	return &PDFLoader{
		loader: loader,
		ocr:    ocr,
		cache:  make(map[string][]byte),
	}
}

// NewPDFLoader creates a PDF loader that extracts text directly from PDF content.
func NewPDFLoader(loader loader.FileLoader) *PDFLoader {
	return &PDFLoader{
		loader: loader,
		cache:  make(map[string][]byte),
	}
}

// GetFileText extracts text from a PDF file.
// If OCR is configured, the PDF is converted to images and processed via OCR.
func (l *PDFLoader) GetFileText(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		content, err := l.loader.GetFileText(ctx, file)
		if err != nil {
			return nil, err
		}

		if l.ocr == nil {
			return parsePDF(content)
		}

		images, err := loader.TransformPdfToImages(ctx, content)
		if err != nil {
			return nil, err
		}

		result, err := l.ocr.ProcessImages(ctx, file, images)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = result
		l.cacheMu.Unlock()

		return result, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// GetBase64 returns the PDF encoded as base64.
func (l *PDFLoader) GetBase64(ctx context.Context, file loader.DocumentFile) (loader.Base64File, error) {
	content, err := l.loader.GetFileText(ctx, file)
	if err != nil {
		return loader.Base64File{}, err
	}

	result := base64.StdEncoding.EncodeToString(content)
	filePrefix := "data:application/pdf;base64,"
	return loader.Base64File{
		Base64:   result,
		FileType: filePrefix,
	}, nil
}
