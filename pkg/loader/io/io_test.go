package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/claimgraph/pkg/loader"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileReadsAndCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentences.txt")
	require.NoError(t, os.WriteFile(path, []byte("Russia invaded Ukraine.\n"), 0o644))

	l := NewIOFileLoader()
	file := loader.NewSentencesFile(loader.NewInputFileParams{Path: path, Loader: l})

	data, err := file.GetBytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Russia invaded Ukraine.\n", string(data))

	require.NoError(t, os.Remove(path))
	data, err = file.GetBytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Russia invaded Ukraine.\n", string(data))
}

func TestGetFileMissing(t *testing.T) {
	l := NewIOFileLoader()
	_, err := l.GetFile(context.Background(), loader.InputFile{Path: filepath.Join(t.TempDir(), "nope")})
	assert.True(t, os.IsNotExist(err))
}
