package loader

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// InputKind tells the pipeline how to parse the bytes of an InputFile.
type InputKind string

const (
	InputKindTriples   InputKind = "triples"
	InputKindSentences InputKind = "sentences"
)

// InputFile is one pipeline input: the OpenIE triple table or the sentence
// list the extractors run over. Its bytes are fetched through Loader.
type InputFile struct {
	ID     string
	Path   string
	Kind   InputKind
	Loader FileLoader
}

type NewInputFileParams struct {
	ID     string
	Path   string
	Loader FileLoader
}

// NewTriplesFile creates an InputFile holding tab separated OpenIE output.
func NewTriplesFile(params NewInputFileParams) InputFile {
	return InputFile{
		ID:     params.ID,
		Path:   params.Path,
		Kind:   InputKindTriples,
		Loader: params.Loader,
	}
}

// NewSentencesFile creates an InputFile holding one sentence per line.
func NewSentencesFile(params NewInputFileParams) InputFile {
	return InputFile{
		ID:     params.ID,
		Path:   params.Path,
		Kind:   InputKindSentences,
		Loader: params.Loader,
	}
}

// GetBytes retrieves the raw content of the file using its Loader.
func (f InputFile) GetBytes(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFile(ctx, f)
}

// FileLoader loads the contents of an InputFile from disk, object storage or
// any other source.
type FileLoader interface {
	GetFile(ctx context.Context, file InputFile) ([]byte, error)
}

// CacheKey identifies a file for caching purposes.
func CacheKey(file InputFile) string {
	if file.ID != "" {
		return file.ID + ":" + file.Path
	}
	return file.Path
}

// Cache memoises loaded file contents. Concurrent loads of the same key are
// collapsed into one fetch. Failed fetches are not cached.
type Cache struct {
	mu    sync.RWMutex
	items map[string][]byte
	group singleflight.Group
}

func NewCache() *Cache {
	return &Cache{items: make(map[string][]byte)}
}

// Load returns the cached bytes for key or calls fetch once to obtain them.
func (c *Cache) Load(key string, fetch func() ([]byte, error)) ([]byte, error) {
	c.mu.RLock()
	if cached, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		if cached, ok := c.items[key]; ok {
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()

		data, err := fetch()
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.items[key] = data
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
