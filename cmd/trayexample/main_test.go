package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/siqueiraa/FrameFlow/pkg/writer"
)

// runApp executes the command without letting cli call os.Exit.
func runApp(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp(&out, &errOut)
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"trayexample"}, args...))
	if err != nil {
		var ec cli.ExitCoder
		require.True(t, errors.As(err, &ec), "unexpected error type %T: %v", err, err)
		code = ec.ExitCode()
		errOut.WriteString(err.Error())
	}
	return out.String(), errOut.String(), code
}

func TestDefaultsWriteOneEvent(t *testing.T) {
	outfile := filepath.Join(t.TempDir(), "output.i3.bz2")
	stdout, _, code := runApp(t, "-o", outfile)
	require.Zero(t, code)
	assert.Equal(t, "Done\n", stdout)

	frames, err := writer.ReadAll(outfile)
	require.NoError(t, err)
	require.Len(t, frames, 1)

	vec, err := frames[0].VectorDouble("RandomVector")
	require.NoError(t, err)
	assert.Len(t, vec, 1000)
	fromModule, err := frames[0].Double("AverageFromModule")
	require.NoError(t, err)
	fromFunction, err := frames[0].Double("AverageFromFunction")
	require.NoError(t, err)
	assert.Equal(t, fromModule, fromFunction)
}

func TestNEvents(t *testing.T) {
	for _, n := range []int{0, 3} {
		outfile := filepath.Join(t.TempDir(), "out.i3.gz")
		_, _, code := runApp(t, "--nevents", fmt.Sprint(n), "--outfile", outfile)
		require.Zero(t, code)

		frames, err := writer.ReadAll(outfile)
		require.NoError(t, err)
		assert.Len(t, frames, n)
	}
}

func TestPositionalArgumentsAreRejected(t *testing.T) {
	dir := t.TempDir()
	outfile := filepath.Join(dir, "never.i3.bz2")
	stdout, stderr, code := runApp(t, "-o", outfile, "extra", "args")

	assert.Equal(t, exitUsage, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Usage:")
	assert.Contains(t, stderr, "Got undefined options: extra args")
	_, err := os.Stat(outfile)
	assert.True(t, os.IsNotExist(err), "no partial run")
}

func TestNegativeNEvents(t *testing.T) {
	_, _, code := runApp(t, "-n", "-1", "-o", filepath.Join(t.TempDir(), "x.i3"))
	assert.Equal(t, exitUsage, code)
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("writer:\n  codec: lzma\n"), 0o600))

	_, stderr, code := runApp(t, "-c", cfgPath, "-o", filepath.Join(dir, "x.i3"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "lzma")
}

func TestConfigWithStore(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
generator:
  seed: 7
writer:
  codec: zstandard
store:
  enabled: true
  path: %s
`, filepath.Join(dir, "frames.badger"))), 0o600))

	outfile := filepath.Join(dir, "seeded.i3.zst")
	_, _, code := runApp(t, "-c", cfgPath, "-n", "2", "-o", outfile)
	require.Zero(t, code)

	frames, err := writer.ReadAll(outfile)
	require.NoError(t, err)
	assert.Len(t, frames, 2)
}

func TestPipelineFile(t *testing.T) {
	dir := t.TempDir()
	outfile := filepath.Join(dir, "custom.i3")
	pipelinePath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(pipelinePath, []byte(fmt.Sprintf(`
name: custom
modules:
  - type: ExampleGenerator
    params: {Size: 4, NEvents: 5}
  - type: AveragingModule
    params: {Input: RandomVector, Output: Mean}
  - type: Writer
    params: {Filename: %s}
`, outfile)), 0o600))

	stdout, _, code := runApp(t, "--pipeline", pipelinePath)
	require.Zero(t, code)
	assert.Equal(t, "Done\n", stdout)

	frames, err := writer.ReadAll(outfile)
	require.NoError(t, err)
	require.Len(t, frames, 5)
	assert.True(t, frames[4].Has("Mean"))
}

func TestPipelineConfigurationError(t *testing.T) {
	dir := t.TempDir()
	pipelinePath := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(pipelinePath, []byte(`
name: broken
modules:
  - type: ExampleGenerator
    params: {Colour: blue}
`), 0o600))

	_, stderr, code := runApp(t, "--pipeline", pipelinePath)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, `"Colour"`)
}
