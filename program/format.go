package program

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/yan85/arch"
)

// Format renders inst the way the assembler reads it: register operands by
// mnemonic, literals in decimal and jump conditions as flag letters.
func Format(inst Instruction, cfg *arch.Config) string {
	d, ok := instrTable[inst.Kind]
	if !ok {
		return inst.String()
	}
	ops := [2]string{}
	for n, raw := range [2]byte{inst.Left, inst.Right} {
		switch d.Kinds[n] {
		case OperandRegister:
			ops[n] = cfg.Registers.Name(raw)
		case OperandFlags:
			ops[n] = cfg.CmpFlags.Names(raw)
		default:
			ops[n] = fmt.Sprintf("%d", raw)
		}
	}
	return fmt.Sprintf("%s %s %s", inst.Kind, ops[0], ops[1])
}

// Annotate adds the syscall name to Sys instructions, for listings.
func Annotate(inst Instruction, cfg *arch.Config) string {
	s := Format(inst, cfg)
	if inst.Kind != arch.KindSys {
		return s
	}
	name := cfg.Syscalls.Name(inst.Left)
	if name == "" {
		name = "unknown"
	}
	return s + " ; " + name
}

// Disassemble decodes image instruction by instruction. Undecodable slots are
// listed as raw bytes rather than stopping the listing.
func Disassemble(image []byte, cfg *arch.Config, count int) (string, error) {
	table, err := arch.NewOpcodeTable(cfg.Opcodes)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	n := len(image) / arch.InstructionSize
	if count > 0 && count < n {
		n = count
	}
	for idx := 0; idx < n; idx++ {
		raw := image[idx*arch.InstructionSize : (idx+1)*arch.InstructionSize]
		inst, err := Decode(raw, cfg.FieldOrder, table)
		if err != nil {
			fmt.Fprintf(&sb, "%3d  %02x %02x %02x  ??\n", idx, raw[0], raw[1], raw[2])
			continue
		}
		fmt.Fprintf(&sb, "%3d  %02x %02x %02x  %s\n", idx, raw[0], raw[1], raw[2], Annotate(inst, cfg))
	}
	return sb.String(), nil
}
