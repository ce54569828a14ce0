package generate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"becoconfig/internal/config"
	"becoconfig/internal/services"
)

func TestRunAll(t *testing.T) {
	root := t.TempDir()
	writeServices(t, root, "src/free", `{"project_info": {"api_key": "FREE", "environment_id": "E1"}}`)
	writeServices(t, root, "src/paid", `{"project_info": {"api_key": "PAID", "environment_id": "E2"}}`)
	outRoot := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.MaxParallel = 2
	g := newGenerator(t, cfg)

	reqs := []Request{
		{Variant: "freeDebug", ProjectRoot: root, OutputDir: filepath.Join(outRoot, "freeDebug"), PackageName: "p"},
		{Variant: "paidRelease", ProjectRoot: root, OutputDir: filepath.Join(outRoot, "paidRelease"), PackageName: "p"},
		{Variant: "freeRelease", ProjectRoot: root, OutputDir: filepath.Join(outRoot, "freeRelease"), PackageName: "p"},
	}

	results, err := g.RunAll(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, services.Fields{APIKey: "FREE", EnvironmentID: "E1"}, results[0].Fields)
	assert.Equal(t, services.Fields{APIKey: "PAID", EnvironmentID: "E2"}, results[1].Fields)
	assert.Equal(t, "freeRelease", results[2].Variant)

	for _, req := range reqs {
		assert.FileExists(t, filepath.Join(req.OutputDir, "values", "beco_values.xml"))
	}
}

func TestRunAll_SharedOutputDir(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	reqs := []Request{
		{Variant: "freeDebug", OutputDir: out, PackageName: "p"},
		{Variant: "paidDebug", OutputDir: out + string(filepath.Separator), PackageName: "p"},
	}

	_, err := newGenerator(t, nil).RunAll(context.Background(), reqs)
	assert.ErrorIs(t, err, ErrSharedOutputDir)
	assert.NoDirExists(t, out)
}

func TestRunAll_FailureIsReported(t *testing.T) {
	root := t.TempDir()
	writeServices(t, root, "src/free", validServices)
	outRoot := t.TempDir()

	reqs := []Request{
		{Variant: "freeDebug", ProjectRoot: root, OutputDir: filepath.Join(outRoot, "a"), PackageName: "p"},
		{Variant: "paidDebug", ProjectRoot: root, OutputDir: filepath.Join(outRoot, "b"), PackageName: "p"},
	}

	_, err := newGenerator(t, nil).RunAll(context.Background(), reqs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variant paidDebug")
}

func TestRunAll_Empty(t *testing.T) {
	results, err := newGenerator(t, nil).RunAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
