package trace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLWriter(t *testing.T) {
	var out bytes.Buffer
	w := NewJSONLWriter(&out)

	for n := 1; n <= 3; n++ {
		s := NewStep(n, uint8(n-1), []byte{0x20, 0x20, byte(n)})
		s.Instruction = "IMM a 1"
		s.SetPostRegisters(map[string]uint8{"a": uint8(n), "i": uint8(n)})
		require.NoError(t, w.WriteStep(s))
	}
	assert.Zero(t, out.Len(), "records stay buffered until flush")
	require.NoError(t, w.Flush())

	sc := bufio.NewScanner(&out)
	lines := 0
	for sc.Scan() {
		var got Step
		require.NoError(t, json.Unmarshal(sc.Bytes(), &got))
		lines++
		assert.Equal(t, lines, got.N)
		assert.Equal(t, uint8(lines), got.PostRegisters["a"])
	}
	assert.Equal(t, 3, lines)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.WriteStep(NewStep(4, 3, nil)), ErrWriterClosed)
	assert.ErrorIs(t, w.Flush(), ErrWriterClosed)
}

func TestJSONLWriterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	w, err := NewJSONLWriterFile(path)
	require.NoError(t, err)
	s := NewStep(1, 0, []byte{1, 2, 3})
	s.Error = "E3|AddressOutOfRange"
	require.NoError(t, w.WriteStep(s))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"error":"E3|AddressOutOfRange"`)
}

func TestSetPostRegistersCopies(t *testing.T) {
	regs := map[string]uint8{"a": 1}
	s := NewStep(1, 0, nil)
	s.SetPostRegisters(regs)
	regs["a"] = 2
	assert.Equal(t, uint8(1), s.PostRegisters["a"])
}
