// Package arch describes the target's instruction encoding: opcode bytes,
// syscall numbers, register identifiers, field order and comparison flags.
// A Config is supplied once per session and never mutated afterwards.
package arch

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	InstructionSize = 3

	CodeBase     = 0x000
	RAMBase      = 0x300
	RAMSize      = 0x100
	RegisterBase = 0x400
	NumRegisters = 7

	// NoneRegister is the sentinel "no register" identifier.
	NoneRegister byte = 0x00
	// NoneAddress is where NoneRegister resolves; it is outside every buffer.
	NoneAddress uint16 = 0xFFFF
)

// Kind is an operation kind; its byte value in an instruction is configured.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindImm
	KindAdd
	KindStk
	KindStm
	KindLdm
	KindCmp
	KindJmp
	KindSys
)

var kindNames = map[Kind]string{
	KindImm: "IMM",
	KindAdd: "ADD",
	KindStk: "STK",
	KindStm: "STM",
	KindLdm: "LDM",
	KindCmp: "CMP",
	KindJmp: "JMP",
	KindSys: "SYS",
}

// Kinds lists every valid kind in encoding-table order.
var Kinds = []Kind{KindImm, KindAdd, KindStk, KindStm, KindLdm, KindCmp, KindJmp, KindSys}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// KindByMnemonic maps "IMM", "add", ... to a Kind.
func KindByMnemonic(m string) (Kind, bool) {
	m = strings.ToUpper(m)
	for k, name := range kindNames {
		if name == m {
			return k, true
		}
	}
	return KindInvalid, false
}

type Opcodes struct {
	Imm byte `json:"imm" yaml:"imm"`
	Add byte `json:"add" yaml:"add"`
	Stk byte `json:"stk" yaml:"stk"`
	Stm byte `json:"stm" yaml:"stm"`
	Ldm byte `json:"ldm" yaml:"ldm"`
	Cmp byte `json:"cmp" yaml:"cmp"`
	Jmp byte `json:"jmp" yaml:"jmp"`
	Sys byte `json:"sys" yaml:"sys"`
}

// Byte returns the configured opcode byte for k.
func (o Opcodes) Byte(k Kind) (byte, bool) {
	switch k {
	case KindImm:
		return o.Imm, true
	case KindAdd:
		return o.Add, true
	case KindStk:
		return o.Stk, true
	case KindStm:
		return o.Stm, true
	case KindLdm:
		return o.Ldm, true
	case KindCmp:
		return o.Cmp, true
	case KindJmp:
		return o.Jmp, true
	case KindSys:
		return o.Sys, true
	}
	return 0, false
}

type Syscalls struct {
	Open       byte `json:"open" yaml:"open"`
	ReadMemory byte `json:"read_memory" yaml:"read_memory"`
	Write      byte `json:"write" yaml:"write"`
}

// Name returns the syscall name for num, or "" when it is not configured.
func (s Syscalls) Name(num byte) string {
	switch num {
	case s.Write:
		return "write"
	case s.ReadMemory:
		return "read_memory"
	case s.Open:
		return "open"
	}
	return ""
}

type Registers struct {
	A    byte `json:"a" yaml:"a"`
	B    byte `json:"b" yaml:"b"`
	C    byte `json:"c" yaml:"c"`
	D    byte `json:"d" yaml:"d"`
	S    byte `json:"s" yaml:"s"`
	I    byte `json:"i" yaml:"i"`
	F    byte `json:"f" yaml:"f"`
	None byte `json:"none" yaml:"none"`
}

// RegisterNames is the bank order: the n-th name lives at RegisterBase+n.
var RegisterNames = []string{"a", "b", "c", "d", "s", "i", "f"}

// IDs returns the seven real register identifiers in bank order.
func (r Registers) IDs() [NumRegisters]byte {
	return [NumRegisters]byte{r.A, r.B, r.C, r.D, r.S, r.I, r.F}
}

// Name translates a raw identifier to its mnemonic.
func (r Registers) Name(id byte) string {
	for n, reg := range r.IDs() {
		if id == reg {
			return RegisterNames[n]
		}
	}
	if id == NoneRegister {
		return "NONE"
	}
	return "Unknown"
}

// ByName translates a mnemonic ("a".."f", "NONE") to its identifier.
func (r Registers) ByName(name string) (byte, bool) {
	name = strings.ToLower(name)
	if name == "none" {
		return NoneRegister, true
	}
	for n, reg := range r.IDs() {
		if RegisterNames[n] == name {
			return reg, true
		}
	}
	return 0, false
}

// Address resolves an identifier to its absolute bank address. The none
// identifier resolves to NoneAddress; ok is false for unknown identifiers.
func (r Registers) Address(id byte) (addr uint16, ok bool) {
	for n, reg := range r.IDs() {
		if id == reg {
			return RegisterBase + uint16(n), true
		}
	}
	if id == NoneRegister {
		return NoneAddress, true
	}
	return 0, false
}

// FieldOrder gives the byte positions of the three instruction fields.
type FieldOrder struct {
	Opcode int `json:"opcode" yaml:"opcode"`
	Left   int `json:"left" yaml:"left"`
	Right  int `json:"right" yaml:"right"`
}

// DefaultFieldOrder is (opcode, left, right).
var DefaultFieldOrder = FieldOrder{Opcode: 0, Left: 1, Right: 2}

type CmpFlags struct {
	Smaller  byte `json:"smaller" yaml:"smaller"`     // left < right
	Bigger   byte `json:"bigger" yaml:"bigger"`       // left > right
	Equal    byte `json:"equal" yaml:"equal"`         // left == right
	NotEqual byte `json:"not_equal" yaml:"not_equal"` // left != right
	Zero     byte `json:"zero" yaml:"zero"`           // left == 0 && right == 0
}

var flagLetters = []string{"L", "G", "E", "N", "Z"}

func (c CmpFlags) masks() []byte {
	return []byte{c.Smaller, c.Bigger, c.Equal, c.NotEqual, c.Zero}
}

// Names renders a flag byte as "L|E" style letters; bits no mask covers are
// appended in hex.
func (c CmpFlags) Names(flags byte) string {
	if flags == 0 {
		return "0"
	}
	parts := make([]string, 0, 5)
	covered := byte(0)
	for n, m := range c.masks() {
		if m != 0 && flags&m == m {
			parts = append(parts, flagLetters[n])
			covered |= m
		}
	}
	if rest := flags &^ covered; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%02x", rest))
	}
	return strings.Join(parts, "|")
}

// ByLetter resolves one of L, G, E, N, Z to its mask.
func (c CmpFlags) ByLetter(letter string) (byte, bool) {
	letter = strings.ToUpper(letter)
	for n, l := range flagLetters {
		if l == letter {
			return c.masks()[n], true
		}
	}
	return 0, false
}

// Config is the complete encoding of one target.
type Config struct {
	Opcodes    Opcodes    `json:"opcodes" yaml:"opcodes"`
	Syscalls   Syscalls   `json:"syscalls" yaml:"syscalls"`
	Registers  Registers  `json:"registers" yaml:"registers"`
	FieldOrder FieldOrder `json:"field_order" yaml:"field_order"`
	CmpFlags   CmpFlags   `json:"cmp_flags" yaml:"cmp_flags"`
}

// String method returns the Config as a formatted JSON string
func (c *Config) String() string {
	jsonData, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error marshaling JSON: %v", err)
	}
	return string(jsonData)
}

// OpcodeTable is the byte -> kind reverse lookup built once per session.
type OpcodeTable map[byte]Kind

// NewOpcodeTable builds the reverse lookup; duplicate bytes are rejected.
func NewOpcodeTable(o Opcodes) (OpcodeTable, error) {
	t := make(OpcodeTable, len(Kinds))
	for _, k := range Kinds {
		b, _ := o.Byte(k)
		if prev, dup := t[b]; dup {
			return nil, fmt.Errorf("opcode 0x%02x assigned to both %s and %s", b, prev, k)
		}
		t[b] = k
	}
	return t, nil
}

// Lookup returns the kind for an opcode byte.
func (t OpcodeTable) Lookup(b byte) (Kind, bool) {
	k, ok := t[b]
	return k, ok
}
