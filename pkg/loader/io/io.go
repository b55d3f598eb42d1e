package io

import (
	"context"
	"os"

	"github.com/OFFIS-RIT/claimgraph/pkg/loader"
)

// IOFileLoader loads files directly from the local filesystem with caching.
type IOFileLoader struct {
	cache *loader.Cache
}

// NewIOFileLoader creates a new filesystem-based file loader.
func NewIOFileLoader() *IOFileLoader {
	return &IOFileLoader{cache: loader.NewCache()}
}

// GetFile reads the file content from the filesystem. Results are cached.
func (l *IOFileLoader) GetFile(ctx context.Context, file loader.InputFile) ([]byte, error) {
	return l.cache.Load(loader.CacheKey(file), func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return os.ReadFile(file.Path)
	})
}
