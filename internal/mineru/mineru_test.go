package mineru

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pdfbatch/internal/orchestrator"
)

type runCall struct {
	env    []string
	name   string
	args   []string
	staged []byte
}

// mockRunner implements CommandRunner and records every call.
type mockRunner struct {
	stdout []byte
	stderr []byte
	err    error
	// failOn makes the call whose -p argument ends with this suffix fail.
	failOn string
	// block waits for context cancellation before returning.
	block bool
	calls []runCall
}

func (m *mockRunner) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, []byte, error) {
	call := runCall{env: env, name: name, args: args}
	for i, a := range args {
		if a == "-p" && i+1 < len(args) {
			call.staged, _ = os.ReadFile(args[i+1])
		}
	}
	m.calls = append(m.calls, call)

	if m.block {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	if m.failOn != "" {
		for _, a := range args {
			if strings.HasSuffix(a, m.failOn) {
				return nil, []byte("  CUDA out of memory\n"), errors.New("exit status 1")
			}
		}
		return m.stdout, nil, nil
	}
	return m.stdout, m.stderr, m.err
}

func writePDF(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7\n"+body), 0o644))
	return path
}

func TestSetBatchSizeHint(t *testing.T) {
	t.Setenv(EnvBatchSizeHint, "")
	require.NoError(t, SetBatchSizeHint(500))
	assert.Equal(t, "500", os.Getenv(EnvBatchSizeHint))
	require.NoError(t, SetBatchSizeHint(64))
	assert.Equal(t, "64", os.Getenv(EnvBatchSizeHint))

	assert.Equal(t, []string{"MINERU_MIN_BATCH_INFERENCE_SIZE=32"}, batchSizeEnv(32))
	assert.Nil(t, batchSizeEnv(0))
}

func TestBuilder_BuildDatasets(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"} {
		paths = append(paths, writePDF(t, dir, name, name))
	}

	b := NewBuilder(zerolog.Nop())
	out, err := b.BuildDatasets(context.Background(), paths, 2, "en")
	require.NoError(t, err)
	require.Len(t, out, len(paths))

	for i, raw := range out {
		ds, ok := raw.(*Dataset)
		require.True(t, ok)
		assert.Equal(t, paths[i], ds.Path)
		assert.Equal(t, "en", ds.Lang)
		assert.True(t, strings.HasSuffix(string(ds.Data), filepath.Base(paths[i])))
		sum := sha256.Sum256(ds.Data)
		assert.Equal(t, hex.EncodeToString(sum[:]), ds.SHA256)
		assert.Equal(t, len(ds.Data), ds.Size())
	}
}

func TestBuilder_Errors(t *testing.T) {
	dir := t.TempDir()
	good := writePDF(t, dir, "good.pdf", "")

	t.Run("not a pdf", func(t *testing.T) {
		bad := filepath.Join(dir, "fake.pdf")
		require.NoError(t, os.WriteFile(bad, []byte("hello"), 0o644))
		_, err := NewBuilder(zerolog.Nop()).BuildDatasets(context.Background(), []string{good, bad}, 4, "")
		assert.ErrorIs(t, err, ErrNotPDF)
		assert.Contains(t, err.Error(), "fake.pdf")
	})

	t.Run("header after leading bytes", func(t *testing.T) {
		junk := filepath.Join(dir, "junk-prefix.pdf")
		require.NoError(t, os.WriteFile(junk, append(bytes.Repeat([]byte{0}, 512), "%PDF-1.4\n"...), 0o644))
		out, err := NewBuilder(zerolog.Nop()).BuildDatasets(context.Background(), []string{junk}, 1, "")
		require.NoError(t, err)
		assert.Len(t, out, 1)
	})

	t.Run("header beyond first KiB", func(t *testing.T) {
		late := filepath.Join(dir, "late-header.pdf")
		require.NoError(t, os.WriteFile(late, append(bytes.Repeat([]byte{' '}, 1024), "%PDF-1.4\n"...), 0o644))
		_, err := NewBuilder(zerolog.Nop()).BuildDatasets(context.Background(), []string{late}, 1, "")
		assert.ErrorIs(t, err, ErrNotPDF)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewBuilder(zerolog.Nop()).BuildDatasets(
			context.Background(), []string{filepath.Join(dir, "gone.pdf")}, 1, "")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("read failure", func(t *testing.T) {
		b := NewBuilder(zerolog.Nop())
		sentinel := errors.New("disk on fire")
		b.readFile = func(string) ([]byte, error) { return nil, sentinel }
		_, err := b.BuildDatasets(context.Background(), []string{good}, 1, "")
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("empty input", func(t *testing.T) {
		out, err := NewBuilder(zerolog.Nop()).BuildDatasets(context.Background(), nil, 4, "")
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func newTestParser(t *testing.T, runner CommandRunner, cfg ParserConfig) *Parser {
	t.Helper()
	cfg.StagingRoot = t.TempDir()
	return NewParser(cfg, runner, zerolog.Nop())
}

func TestParser_Parse(t *testing.T) {
	runner := &mockRunner{}
	p := newTestParser(t, runner, ParserConfig{Binary: "/opt/magic-pdf", BatchSize: 300, ExtraArgs: []string{"--debug", "false"}})

	datasets := []orchestrator.Dataset{
		&Dataset{Path: "/in/report.pdf", Data: []byte("%PDF-one"), Lang: "en"},
		&Dataset{Path: "/in/scan.pdf", Data: []byte("%PDF-two")},
	}
	err := p.Parse(context.Background(), "/out", []string{"report", "scan"}, datasets, "auto")
	require.NoError(t, err)
	require.Len(t, runner.calls, 2)

	first := runner.calls[0]
	assert.Equal(t, "/opt/magic-pdf", first.name)
	assert.Equal(t, []string{"MINERU_MIN_BATCH_INFERENCE_SIZE=300"}, first.env)
	require.Len(t, first.args, 10)
	assert.Equal(t, "-p", first.args[0])
	assert.Equal(t, "report.pdf", filepath.Base(first.args[1]))
	assert.Equal(t, []string{"-o", "/out", "-m", "auto", "-l", "en", "--debug", "false"}, first.args[2:])
	assert.Equal(t, []byte("%PDF-one"), first.staged)

	second := runner.calls[1]
	assert.Equal(t, "scan.pdf", filepath.Base(second.args[1]))
	assert.NotContains(t, second.args, "-l")
	assert.Equal(t, []byte("%PDF-two"), second.staged)

	// Staging directory is cleaned up.
	entries, err := os.ReadDir(p.cfg.StagingRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParser_StagesUnderIdentifierName(t *testing.T) {
	runner := &mockRunner{}
	p := newTestParser(t, runner, ParserConfig{})

	// The identifier, not the source file name, names the staged copy.
	datasets := []orchestrator.Dataset{&Dataset{Path: "/in/original-name.pdf", Data: []byte("%PDF-x")}}
	require.NoError(t, p.Parse(context.Background(), "/out", []string{"renamed"}, datasets, "layout"))
	assert.Equal(t, "renamed.pdf", filepath.Base(runner.calls[0].args[1]))
	assert.Equal(t, "magic-pdf", runner.calls[0].name)
	assert.Nil(t, runner.calls[0].env)
}

func TestParser_FailureAbortsBatch(t *testing.T) {
	runner := &mockRunner{failOn: "b.pdf"}
	p := newTestParser(t, runner, ParserConfig{})

	datasets := []orchestrator.Dataset{
		&Dataset{Data: []byte("%PDF-a")},
		&Dataset{Data: []byte("%PDF-b")},
		&Dataset{Data: []byte("%PDF-c")},
	}
	err := p.Parse(context.Background(), "/out", []string{"a", "b", "c"}, datasets, "auto")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParseFailed)
	assert.Equal(t, "magic-pdf parse failed for b: CUDA out of memory", err.Error())
	assert.Len(t, runner.calls, 2, "documents after the failure are not attempted")
}

func TestParser_Timeout(t *testing.T) {
	runner := &mockRunner{block: true}
	p := newTestParser(t, runner, ParserConfig{Timeout: 20 * time.Millisecond})

	err := p.Parse(context.Background(), "/out", []string{"slow"},
		[]orchestrator.Dataset{&Dataset{Data: []byte("%PDF-")}}, "auto")
	assert.ErrorIs(t, err, ErrParseTimeout)
	assert.Contains(t, err.Error(), "slow")
}

func TestParser_Cancelled(t *testing.T) {
	runner := &mockRunner{block: true}
	p := newTestParser(t, runner, ParserConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Parse(ctx, "/out", []string{"a"}, []orchestrator.Dataset{&Dataset{Data: []byte("%PDF-")}}, "auto")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParser_InputValidation(t *testing.T) {
	runner := &mockRunner{}
	p := newTestParser(t, runner, ParserConfig{})
	ctx := context.Background()
	ds := &Dataset{Data: []byte("%PDF-")}

	err := p.Parse(ctx, "/out", []string{"a", "b"}, []orchestrator.Dataset{ds}, "auto")
	assert.ErrorIs(t, err, ErrLengthMismatch)

	err = p.Parse(ctx, "/out", []string{"a"}, []orchestrator.Dataset{"not a dataset"}, "auto")
	assert.ErrorIs(t, err, ErrUnknownDataset)

	err = p.Parse(ctx, "/out", []string{"../escape"}, []orchestrator.Dataset{ds}, "auto")
	assert.ErrorIs(t, err, ErrInvalidID)

	err = p.Parse(ctx, "/out", []string{""}, []orchestrator.Dataset{ds}, "auto")
	assert.ErrorIs(t, err, ErrInvalidID)

	require.NoError(t, p.Parse(ctx, "/out", nil, nil, "auto"))
	assert.Empty(t, runner.calls)
}

func TestParseError(t *testing.T) {
	assert.Equal(t, "magic-pdf parse failed for x", ParseError("x", "  \n").Error())
	assert.ErrorIs(t, ParseError("x", "boom"), ErrParseFailed)
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output  string
		want    string
		wantErr bool
	}{
		{output: "magic-pdf, version 1.3.12\n", want: "1.3.12"},
		{output: "mineru v2.0.0-rc1", want: "2.0.0-rc1"},
		{output: "0.6.1", want: "0.6.1"},
		{output: "no version here", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			v, err := ParseVersion(tt.output)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrVersionUnparseable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestCheckVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("satisfied", func(t *testing.T) {
		runner := &mockRunner{stdout: []byte("magic-pdf, version 1.3.12\n")}
		v, err := CheckVersion(ctx, runner, "magic-pdf", ">= 0.6.0")
		require.NoError(t, err)
		assert.Equal(t, "1.3.12", v.String())
		assert.Equal(t, []string{"--version"}, runner.calls[0].args)
	})

	t.Run("too old", func(t *testing.T) {
		runner := &mockRunner{stdout: []byte("magic-pdf, version 0.5.9\n")}
		_, err := CheckVersion(ctx, runner, "magic-pdf", ">= 0.6.0")
		assert.ErrorIs(t, err, ErrVersionUnsupported)
	})

	t.Run("version on stderr", func(t *testing.T) {
		runner := &mockRunner{stderr: []byte("version 1.0.1")}
		_, err := CheckVersion(ctx, runner, "magic-pdf", ">= 1.0.0")
		assert.NoError(t, err)
	})

	t.Run("empty constraint skips", func(t *testing.T) {
		runner := &mockRunner{}
		v, err := CheckVersion(ctx, runner, "magic-pdf", "")
		assert.NoError(t, err)
		assert.Nil(t, v)
		assert.Empty(t, runner.calls)
	})

	t.Run("binary fails", func(t *testing.T) {
		runner := &mockRunner{err: errors.New("exit status 127"), stderr: []byte("not found")}
		_, err := CheckVersion(ctx, runner, "magic-pdf", ">= 1.0.0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("bad constraint", func(t *testing.T) {
		_, err := CheckVersion(ctx, &mockRunner{}, "magic-pdf", "!!")
		assert.Error(t, err)
	})
}

func TestFindBinary_NotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := FindBinary("magic-pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBinaryNotFound)
	assert.Contains(t, err.Error(), installURL)
}

func TestFindBinary_Found(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "magic-pdf")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	t.Setenv("PATH", dir)

	path, err := FindBinary("magic-pdf")
	require.NoError(t, err)
	assert.Equal(t, bin, path)
}

func TestParser_LogsThroughContextLogger(t *testing.T) {
	var fallback, scoped bytes.Buffer
	p := NewParser(ParserConfig{StagingRoot: t.TempDir()}, &mockRunner{}, zerolog.New(&fallback))

	runLog := zerolog.New(&scoped).With().Str("run_id", "run-42").Logger()
	ctx := runLog.WithContext(context.Background())
	datasets := []orchestrator.Dataset{&Dataset{Data: []byte("%PDF-a")}}
	require.NoError(t, p.Parse(ctx, "/out", []string{"a"}, datasets, "auto"))

	assert.Empty(t, fallback.String())
	lines := strings.Split(strings.TrimSpace(scoped.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Contains(t, line, `"run_id":"run-42"`)
		assert.Equal(t, 1, strings.Count(line, `"component"`), line)
		assert.Contains(t, line, `"component":"mineru.parser"`)
	}
}

func TestBuilder_LogsThroughContextLogger(t *testing.T) {
	var scoped bytes.Buffer
	runLog := zerolog.New(&scoped).Level(zerolog.DebugLevel).With().Str("run_id", "run-7").Logger()
	ctx := runLog.WithContext(context.Background())

	path := writePDF(t, t.TempDir(), "a.pdf", "")
	_, err := NewBuilder(zerolog.Nop()).BuildDatasets(ctx, []string{path}, 1, "")
	require.NoError(t, err)

	assert.Contains(t, scoped.String(), `"run_id":"run-7"`)
	assert.Contains(t, scoped.String(), `"component":"mineru.builder"`)
}
