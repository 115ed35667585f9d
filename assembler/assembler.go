// Package assembler turns mnemonic source into an image the emulator runs.
//
// One instruction per line, three whitespace-separated tokens:
//
//	OPCODE LEFT RIGHT
//
// Text after '#' or ';' is a comment. Operands are register mnemonics
// (a b c d s i f NONE), byte literals (decimal, or 0x/0o/0b prefixed) or,
// for the JMP condition, flag letters joined by '|' such as "L|E".
// Bytes are emitted in the configured field order.
package assembler

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/colorfulnotion/yan85/arch"
	"github.com/colorfulnotion/yan85/log"
	"github.com/colorfulnotion/yan85/program"
)

type ErrorKind uint8

const (
	InvalidRegister ErrorKind = iota + 1
	InvalidOperation
	InvalidNumber
	InvalidNumberOfParts
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidRegister:
		return "invalid register"
	case InvalidOperation:
		return "invalid operation"
	case InvalidNumber:
		return "invalid number"
	case InvalidNumberOfParts:
		return "invalid number of parts"
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Error locates a rejected token. Line is 1-based.
type Error struct {
	Line  int
	Kind  ErrorKind
	Token string
	Parts int // token count, for InvalidNumberOfParts
}

func (e *Error) Error() string {
	if e.Kind == InvalidNumberOfParts {
		return fmt.Sprintf("line %d: %s: every instruction has 3 parts, found %d", e.Line, e.Kind, e.Parts)
	}
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Kind, e.Token)
}

// Assemble translates src for cfg.
func Assemble(src string, cfg *arch.Config) ([]byte, error) {
	var out []byte
	sc := bufio.NewScanner(strings.NewReader(src))
	line := 0
	for sc.Scan() {
		line++
		text := stripComment(sc.Text())
		parts := strings.Fields(text)
		if len(parts) == 0 {
			continue
		}
		inst, err := parseLine(parts, cfg, line)
		if err != nil {
			return nil, err
		}
		raw, err := program.Encode(inst, cfg.FieldOrder, cfg.Opcodes)
		if err != nil {
			return nil, err
		}
		log.Trace(log.AsmModule, "assemble", "line", line, "inst", program.Format(inst, cfg), "bytes", fmt.Sprintf("%x", raw))
		out = append(out, raw[:]...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	log.Debug(log.AsmModule, "assembled", "lines", line, "instructions", len(out)/arch.InstructionSize)
	return out, nil
}

func stripComment(s string) string {
	if i := strings.IndexAny(s, "#;"); i >= 0 {
		return s[:i]
	}
	return s
}

func parseLine(parts []string, cfg *arch.Config, line int) (program.Instruction, error) {
	if len(parts) != 3 {
		return program.Instruction{}, &Error{Line: line, Kind: InvalidNumberOfParts, Parts: len(parts)}
	}
	kind, ok := arch.KindByMnemonic(parts[0])
	if !ok {
		return program.Instruction{}, &Error{Line: line, Kind: InvalidOperation, Token: parts[0]}
	}
	def, _ := program.Def(kind)
	var operands [2]byte
	for n := 0; n < 2; n++ {
		v, err := parseOperand(parts[n+1], def.Kinds[n], cfg, line)
		if err != nil {
			return program.Instruction{}, err
		}
		operands[n] = v
	}
	return program.Instruction{Kind: kind, Left: operands[0], Right: operands[1]}, nil
}

func parseOperand(tok string, kind program.OperandKind, cfg *arch.Config, line int) (byte, error) {
	switch kind {
	case program.OperandRegister:
		id, ok := cfg.Registers.ByName(tok)
		if !ok {
			return 0, &Error{Line: line, Kind: InvalidRegister, Token: tok}
		}
		return id, nil
	case program.OperandFlags:
		return parseFlags(tok, cfg.CmpFlags, line)
	}
	return parseNum(tok, line)
}

func parseNum(tok string, line int) (byte, error) {
	v, err := strconv.ParseUint(tok, 0, 8)
	if err != nil {
		return 0, &Error{Line: line, Kind: InvalidNumber, Token: tok}
	}
	return byte(v), nil
}

// parseFlags accepts a literal mask or letters such as "L|E".
func parseFlags(tok string, masks arch.CmpFlags, line int) (byte, error) {
	var flags byte
	for _, part := range strings.Split(tok, "|") {
		if m, ok := masks.ByLetter(part); ok {
			flags |= m
			continue
		}
		v, err := parseNum(part, line)
		if err != nil {
			return 0, &Error{Line: line, Kind: InvalidNumber, Token: tok}
		}
		flags |= v
	}
	return flags, nil
}
