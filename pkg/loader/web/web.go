package web

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/paperflow-ai/paperflow/pkg/loader"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/sync/singleflight"
)

// WebLoader loads content from web URLs and extracts readable text.
// For HTML pages, it uses readability to extract the main content.
type WebLoader struct {
	fallback loader.FileLoader

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewWebLoader creates a new web loader without a fallback loader.
func NewWebLoader() WebLoader {
	return WebLoader{
		cache: make(map[string][]byte),
	}
}

// NewWebLoaderWithLoader creates a web loader with a fallback for non-HTML content.
func NewWebLoaderWithLoader(loader loader.FileLoader) WebLoader {
	return WebLoader{
		fallback: loader,
		cache:    make(map[string][]byte),
	}
}

// GetFileText fetches a URL and extracts readable text content.
// For HTML pages, it uses readability to extract the main article content.
func (l *WebLoader) GetFileText(ctx context.Context, file loader.DocumentFile) ([]byte, error) {
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

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.FilePath, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		contentType := resp.Header.Get("Content-Type")
		if strings.Contains(contentType, "text/html") {
			pageURL, err := url.Parse(file.FilePath)
			if err != nil {
				return nil, fmt.Errorf("failed to parse url: %w", err)
			}
			article, err := readability.FromReader(resp.Body, pageURL)
			if err != nil {
				return nil, fmt.Errorf("failed to parse html: %w", err)
			}
			var builder strings.Builder
			if err := article.RenderText(&builder); err != nil {
				return nil, fmt.Errorf("failed to render article text: %w", err)
			}

			return []byte(builder.String()), nil
		}

		if l.fallback != nil {
			return l.fallback.GetFileText(ctx, file)
		}

		result, err := io.ReadAll(resp.Body)
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

// GetBase64 fetches a URL and returns its content encoded as base64.
func (l *WebLoader) GetBase64(ctx context.Context, file loader.DocumentFile) (loader.Base64File, error) {
	resp, err := http.Get(file.FilePath)
	if err != nil {
		return loader.Base64File{}, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return loader.Base64File{}, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		u, _ := url.Parse(file.FilePath)
		ext := path.Ext(u.Path)
		contentType = mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	return loader.Base64File{
		Base64:   base64.StdEncoding.EncodeToString(data),
		FileType: fmt.Sprintf("data:%s;base64,", contentType),
	}, nil
}
