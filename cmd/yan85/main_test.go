package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/yan85/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const hello = `IMM a 104   # 'h'
IMM b 0
STM b a
IMM a 105   # 'i'
IMM b 1
STM b a
IMM a 1     # stdout
IMM b 0
IMM c 2
SYS 4 d     # write
`

func writeSource(t *testing.T, dir string) string {
	t.Helper()
	src := filepath.Join(dir, "hello.asm")
	require.NoError(t, os.WriteFile(src, []byte(hello), 0o644))
	return src
}

func TestAsmDisasm(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	bin := filepath.Join(dir, "hello.bin")

	out, err := execute(t, "asm", src, "-o", bin)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 10 instructions")

	image, err := os.ReadFile(bin)
	require.NoError(t, err)
	assert.Len(t, image, 30)

	out, err = execute(t, "disasm", bin, "--count", "2")
	require.NoError(t, err)
	assert.Equal(t, "  0  20 20 68  IMM a 104\n  1  20 04 00  IMM b 0\n", out)
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	snap := filepath.Join(dir, "final.json")
	expect := filepath.Join(dir, "expect.json")
	require.NoError(t, os.WriteFile(expect, []byte(`{"registers":{"d":2,"i":11}}`), 0o644))

	out, err := execute(t, "run", src, "--dry-run", "--snapshot", snap, "--expect", expect,
		"--trace", filepath.Join(dir, "trace.jsonl"), "--profile", filepath.Join(dir, "profile.html"))
	require.ErrorIs(t, err, vmerrors.ErrUnrecognizedOpcode)
	assert.Contains(t, out, "hi")
	assert.Contains(t, out, "final state matches")

	for _, name := range []string{"final.json", "trace.jsonl", "profile.html"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.NotZero(t, info.Size(), name)
	}
}

func TestRunExpectMismatch(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	expect := filepath.Join(dir, "expect.json")
	require.NoError(t, os.WriteFile(expect, []byte(`{"registers":{"d":7}}`), 0o644))

	out, err := execute(t, "run", src, "--dry-run", "--expect", expect)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
	assert.Contains(t, out, `"d"`)
}

type failingCloser struct{ err error }

func (c failingCloser) Close() error { return c.err }

func TestCloseInto(t *testing.T) {
	boom := errors.New("disk full")

	var err error
	closeInto(failingCloser{boom}, &err)
	require.ErrorIs(t, err, boom)

	first := errors.New("first")
	err = first
	closeInto(failingCloser{boom}, &err)
	require.ErrorIs(t, err, first)

	err = nil
	closeInto(failingCloser{}, &err)
	require.NoError(t, err)
}

func TestRunStepLimit(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	_, err := execute(t, "run", src, "--dry-run", "--max-steps", "3")
	require.ErrorIs(t, err, vmerrors.ErrStepLimit)
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "memory map")

	out, err = execute(t, "--config", "variant", "config", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"field_order"`)

	_, err = execute(t, "--config", "nosuch", "config")
	require.ErrorIs(t, err, vmerrors.ErrUnknownPreset)
}
