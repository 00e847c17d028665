package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/paperflow-ai/paperflow/pkg/ai"
	"github.com/paperflow-ai/paperflow/pkg/loader"
	"github.com/paperflow-ai/paperflow/pkg/logger"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// OCRLoader extracts text from images using AI vision models.
// It processes images in parallel and caches results for efficiency.
type OCRLoader struct {
	loader   loader.FileLoader
	aiClient ai.Client
	parallel int

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewOCRLoaderParams contains configuration for creating an OCRLoader.
type NewOCRLoaderParams struct {
	Loader   loader.FileLoader
	AIClient ai.Client
	Parallel int
}

// NewOCRLoader creates a new OCR loader that transcribes page images using AI.
func NewOCRLoader(params NewOCRLoaderParams) *OCRLoader {
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = 1
	}
	return &OCRLoader{
		loader:   params.Loader,
		aiClient: params.AIClient,
		parallel: parallel,
		cache:    make(map[string][]byte),
	}
}

// ProcessImages transcribes a slice of page images to text using AI vision in
// parallel. Returns the concatenated markdown from all pages in order.
func (l *OCRLoader) ProcessImages(ctx context.Context, file loader.DocumentFile, images [][]byte) ([]byte, error) {
	output := make([][]byte, len(images))
	outputMtx := sync.Mutex{}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallel)

	for i, img := range images {
		idx := i
		image := img
		g.Go(func() error {
			logger.Debug("[OCR] Processing page", "number", idx+1, "total", len(images))
			prompt := ai.TranscribePrompt
			b64String := base64.StdEncoding.EncodeToString(image)
			filePrefix := "data:application/png;base64,"
			b64 := loader.Base64File{
				Base64:   b64String,
				FileType: filePrefix,
			}
			desc, err := l.aiClient.GenerateImageDescription(gCtx, prompt, b64)
			if err != nil {
				return err
			}

			outputMtx.Lock()
			output[idx] = []byte(desc)
			outputMtx.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var res strings.Builder
	for _, o := range output {
		fmt.Fprintf(&res, "%s\n", o)
	}

	return []byte(loader.NormalizeMarkdownImageDescriptions(res.String())), nil
}

// GetFileText loads an image file and extracts text using OCR. Results are cached.
func (l *OCRLoader) GetFileText(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
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

		input := make([][]byte, 0)
		input = append(input, content)
		output, err := l.ProcessImages(ctx, file, input)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = output
		l.cacheMu.Unlock()

		return output, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// GetBase64 returns the image encoded as base64.
func (l *OCRLoader) GetBase64(ctx context.Context, file loader.DocumentFile) (loader.Base64File, error) {
	return l.loader.GetBase64(ctx, file)
}

// InvalidateCache removes a specific file from the cache
func (l *OCRLoader) InvalidateCache(file loader.DocumentFile) {
	key := loader.CacheKey(file)
	l.cacheMu.Lock()
	delete(l.cache, key)
	l.cacheMu.Unlock()
}

// ClearCache removes all cached OCR results
func (l *OCRLoader) ClearCache() {
	l.cacheMu.Lock()
	l.cache = make(map[string][]byte)
	l.cacheMu.Unlock()
}
