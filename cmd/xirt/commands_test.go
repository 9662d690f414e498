package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixture = filepath.Join("..", "..", "xirtnet", "testdata", "xirt_params.yaml")

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestSummary(t *testing.T) {
	out, err := run(t, "summary", "--params", fixture, "--input-dim", "10", "--compile")
	require.NoError(t, err)
	assert.Contains(t, out, "Total params:")
	assert.Contains(t, out, "siamese")
}

func TestLayersNotSiamese(t *testing.T) {
	out, err := run(t, "layers", "-p", fixture, "--input-dim", "10", "--siamese", "false")
	require.NoError(t, err)
	assert.Contains(t, out, "main_input")
	assert.NotContains(t, out, "input_1")
}

func TestVisualize(t *testing.T) {
	name := filepath.Join(t.TempDir(), "model")

	out, err := run(t, "visualize", "-p", fixture, "--input-dim", "10", "-o", name)
	require.NoError(t, err)
	assert.Contains(t, out, "model.dot")
	assert.FileExists(t, name+".dot")
}

func TestParams(t *testing.T) {
	csv := filepath.Join(t.TempDir(), "params.csv")

	out, err := run(t, "params", "-p", fixture, "-o", csv)
	require.NoError(t, err)
	assert.Contains(t, out, "params to")
	assert.FileExists(t, csv)
}

func TestErrors(t *testing.T) {
	_, err := run(t, "layers")
	assert.Error(t, err, "--params is required")

	_, err = run(t, "layers", "-p", fixture, "--siamese", "maybe")
	assert.Error(t, err)

	_, err = run(t, "summary", "-p", fixture, "--log-level", "loud")
	assert.Error(t, err)
}
