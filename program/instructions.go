// Package program decodes, encodes and renders 3-byte instructions. Nothing
// here touches emulator state; field positions and opcode bytes are always
// parameters.
package program

import (
	"errors"
	"fmt"

	"github.com/colorfulnotion/yan85/arch"
	"github.com/colorfulnotion/yan85/vmerrors"
)

// OperandKind says how an operand byte is interpreted for a given kind.
type OperandKind uint8

const (
	OperandRegister OperandKind = iota
	OperandLiteral
	OperandFlags
)

// InstrDef describes the two operand slots of an instruction kind.
type InstrDef struct {
	Roles [2]string
	Kinds [2]OperandKind
}

var instrTable = map[arch.Kind]InstrDef{
	arch.KindSys: {Roles: [2]string{"num", "dst"}, Kinds: [2]OperandKind{OperandLiteral, OperandRegister}},
	arch.KindCmp: {Roles: [2]string{"left", "right"}, Kinds: [2]OperandKind{OperandRegister, OperandRegister}},
	arch.KindStk: {Roles: [2]string{"pop", "push"}, Kinds: [2]OperandKind{OperandRegister, OperandRegister}},
	arch.KindLdm: {Roles: [2]string{"dst", "src"}, Kinds: [2]OperandKind{OperandRegister, OperandRegister}},
	arch.KindStm: {Roles: [2]string{"dst", "src"}, Kinds: [2]OperandKind{OperandRegister, OperandRegister}},
	arch.KindImm: {Roles: [2]string{"dst", "val"}, Kinds: [2]OperandKind{OperandRegister, OperandLiteral}},
	arch.KindJmp: {Roles: [2]string{"flags", "dst"}, Kinds: [2]OperandKind{OperandFlags, OperandRegister}},
	arch.KindAdd: {Roles: [2]string{"dst", "src"}, Kinds: [2]OperandKind{OperandRegister, OperandRegister}},
}

// Def returns the operand layout of k.
func Def(k arch.Kind) (InstrDef, bool) {
	d, ok := instrTable[k]
	return d, ok
}

var ErrInstructionLength = errors.New("instruction must be exactly 3 bytes")

// Instruction is a decoded instruction. Left and Right are the raw operand
// bytes; whether each is a register identifier or a literal depends on Kind.
type Instruction struct {
	Kind  arch.Kind
	Left  byte
	Right byte
}

func (inst Instruction) String() string {
	d, ok := instrTable[inst.Kind]
	if !ok {
		return fmt.Sprintf("%s 0x%02x 0x%02x", inst.Kind, inst.Left, inst.Right)
	}
	return fmt.Sprintf("%s %s=0x%02x %s=0x%02x", inst.Kind, d.Roles[0], inst.Left, d.Roles[1], inst.Right)
}

// Decode reads the opcode and both operands at the positions given by order
// and resolves the opcode through table.
func Decode(raw []byte, order arch.FieldOrder, table arch.OpcodeTable) (Instruction, error) {
	if len(raw) != arch.InstructionSize {
		return Instruction{}, fmt.Errorf("%w: got %d", ErrInstructionLength, len(raw))
	}
	op := raw[order.Opcode]
	kind, ok := table.Lookup(op)
	if !ok {
		return Instruction{}, fmt.Errorf("%w: 0x%02x", vmerrors.ErrUnrecognizedOpcode, op)
	}
	return Instruction{Kind: kind, Left: raw[order.Left], Right: raw[order.Right]}, nil
}

// Encode is the inverse of Decode.
func Encode(inst Instruction, order arch.FieldOrder, opcodes arch.Opcodes) ([arch.InstructionSize]byte, error) {
	var out [arch.InstructionSize]byte
	op, ok := opcodes.Byte(inst.Kind)
	if !ok {
		return out, fmt.Errorf("cannot encode %s", inst.Kind)
	}
	out[order.Opcode] = op
	out[order.Left] = inst.Left
	out[order.Right] = inst.Right
	return out, nil
}
