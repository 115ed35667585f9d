package emulator

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nsf/jsondiff"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
	"golang.org/x/crypto/blake2b"
)

// Snapshot is the observable machine state: registers by mnemonic, the RAM
// window and a digest over the whole buffer.
type Snapshot struct {
	Registers map[string]byte `json:"registers,omitempty"`
	RAM       string          `json:"ram,omitempty"`
	Digest    string          `json:"digest,omitempty"`
}

func (e *Emulator) Snapshot() (*Snapshot, error) {
	regs, err := e.Registers()
	if err != nil {
		return nil, err
	}
	digest := blake2b.Sum256(e.mem)
	return &Snapshot{
		Registers: regs,
		RAM:       hex.EncodeToString(e.RAM()),
		Digest:    hex.EncodeToString(digest[:]),
	}, nil
}

func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &s, nil
}

func (s *Snapshot) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// CompareSnapshots classifies actual against expected. An expected snapshot
// that omits fields (for example the digest) is a SupersetMatch when
// everything it does state holds.
func CompareSnapshots(expected, actual *Snapshot) (jsondiff.Difference, string, error) {
	exp, err := json.Marshal(expected)
	if err != nil {
		return jsondiff.NoMatch, "", err
	}
	act, err := json.Marshal(actual)
	if err != nil {
		return jsondiff.NoMatch, "", err
	}
	opts := jsondiff.DefaultConsoleOptions()
	diff, explanation := jsondiff.Compare(act, exp, &opts)
	return diff, explanation, nil
}

// DiffSnapshots renders an ASCII delta from expected to actual, or "" when
// they are equal.
func DiffSnapshots(expected, actual *Snapshot, coloring bool) (string, error) {
	exp, err := json.Marshal(expected)
	if err != nil {
		return "", err
	}
	act, err := json.Marshal(actual)
	if err != nil {
		return "", err
	}
	delta, err := gojsondiff.New().Compare(exp, act)
	if err != nil {
		return "", err
	}
	if !delta.Modified() {
		return "", nil
	}
	var left interface{}
	if err := json.Unmarshal(exp, &left); err != nil {
		return "", err
	}
	asciiFmt := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       coloring,
	})
	return asciiFmt.Format(delta)
}
