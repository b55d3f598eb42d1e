package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/claimgraph/pkg/export"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestBuildWritesTablesLocally(t *testing.T) {
	dir := t.TempDir()
	triples := writeFile(t, dir, "triples.tsv",
		"confidence\tsubject\tverb\tobject\n"+
			"0.91\tRussia\tinvaded\tUkraine\n"+
			"0.80\tDummy\tis\ta dummy\n"+
			"0.75\tNATO\tprovoked\tRussia\n"+
			"0.10\tNATO\tsaid\t\n")
	out := filepath.Join(dir, "graph")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"build", "--triples", triples, "--out", out, "--extractors", "", "--resolve=false"})
	require.NoError(t, cmd.ExecuteContext(context.Background()), stderr.String())

	nodes, err := os.ReadFile(filepath.Join(out, "nodes.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Id,Label\n0,Russia\n1,Ukraine\n2,NATO\n", string(nodes))

	edges, err := os.ReadFile(filepath.Join(out, "edges.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Source,Target,Type,Id,Label,Weight\n0,1,Directed,0,invaded,1.0\n2,0,Directed,1,provoked,1.0\n", string(edges))

	_, err = os.Stat(filepath.Join(out, export.ReportFile))
	assert.NoError(t, err)
	assert.Contains(t, stdout.String(), "nodes=3 edges=2")
}

func TestBuildRequiresTriples(t *testing.T) {
	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"build", "--out", t.TempDir()})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestBuildRejectsUnknownPolicy(t *testing.T) {
	dir := t.TempDir()
	triples := writeFile(t, dir, "triples.tsv", "0.9\tRussia\tinvaded\tUkraine\n")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"build", "--triples", triples, "--align-policy", "fuzzy", "--extractors", "", "--resolve=false"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestBuildFailsOnMissingInput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"build", "--triples", filepath.Join(t.TempDir(), "missing.tsv"), "--extractors", "", "--resolve=false"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
