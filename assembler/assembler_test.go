package assembler

import (
	"errors"
	"testing"

	"github.com/colorfulnotion/yan85/arch"
	"github.com/colorfulnotion/yan85/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleDefault(t *testing.T) {
	src := `
# add two numbers
IMM a 5
IMM b 3   ; second operand
ADD a b
`
	image, err := Assemble(src, arch.Default())
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x20, 0x20, 0x05,
		0x20, 0x04, 0x03,
		0x80, 0x20, 0x04,
	}, image)
}

func TestAssembleHonorsFieldOrder(t *testing.T) {
	cfg, err := arch.Load("variant")
	require.NoError(t, err)
	image, err := Assemble("IMM a 5\nSTK NONE b\n", cfg)
	require.NoError(t, err)
	// opcode last, then left, right first
	assert.Equal(t, []byte{
		cfg.Registers.A, 0x05, cfg.Opcodes.Imm,
		arch.NoneRegister, cfg.Registers.B, cfg.Opcodes.Stk,
	}, image)
}

func TestAssembleOperands(t *testing.T) {
	cfg := arch.Default()
	f := cfg.CmpFlags
	cases := []struct {
		src  string
		want program.Instruction
	}{
		{"SYS 4 d", program.Instruction{Kind: arch.KindSys, Left: 4, Right: cfg.Registers.D}},
		{"sys 0x04 d", program.Instruction{Kind: arch.KindSys, Left: 4, Right: cfg.Registers.D}},
		{"JMP 0 c", program.Instruction{Kind: arch.KindJmp, Left: 0, Right: cfg.Registers.C}},
		{"JMP L|E c", program.Instruction{Kind: arch.KindJmp, Left: f.Smaller | f.Equal, Right: cfg.Registers.C}},
		{"JMP n c", program.Instruction{Kind: arch.KindJmp, Left: f.NotEqual, Right: cfg.Registers.C}},
		{"JMP G|0x80 c", program.Instruction{Kind: arch.KindJmp, Left: f.Bigger | 0x80, Right: cfg.Registers.C}},
		{"STK a NONE", program.Instruction{Kind: arch.KindStk, Left: cfg.Registers.A, Right: 0}},
		{"LDM a S", program.Instruction{Kind: arch.KindLdm, Left: cfg.Registers.A, Right: cfg.Registers.S}},
	}
	table, err := arch.NewOpcodeTable(cfg.Opcodes)
	require.NoError(t, err)
	for _, tc := range cases {
		image, err := Assemble(tc.src, cfg)
		require.NoError(t, err, tc.src)
		got, err := program.Decode(image, cfg.FieldOrder, table)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.src)
	}
}

func TestAssembleErrors(t *testing.T) {
	cfg := arch.Default()
	cases := []struct {
		src   string
		kind  ErrorKind
		line  int
		token string
	}{
		{"IMM a", InvalidNumberOfParts, 1, ""},
		{"IMM a 5\n\nNOP a b", InvalidOperation, 3, "NOP"},
		{"IMM x 5", InvalidRegister, 1, "x"},
		{"IMM a 256", InvalidNumber, 1, "256"},
		{"ADD a 5", InvalidRegister, 1, "5"},
		{"SYS write d", InvalidNumber, 1, "write"},
		{"JMP L|Q c", InvalidNumber, 1, "L|Q"},
	}
	for _, tc := range cases {
		_, err := Assemble(tc.src, cfg)
		var aerr *Error
		require.True(t, errors.As(err, &aerr), tc.src)
		assert.Equal(t, tc.kind, aerr.Kind, tc.src)
		assert.Equal(t, tc.line, aerr.Line, tc.src)
		assert.Equal(t, tc.token, aerr.Token, tc.src)
	}

	_, err := Assemble("IMM a b c", cfg)
	assert.EqualError(t, err, "line 1: invalid number of parts: every instruction has 3 parts, found 4")
}

// Disassembly output assembles back to the same bytes.
func TestDisassembleReassembles(t *testing.T) {
	for _, id := range arch.Presets() {
		cfg, err := arch.Load(id)
		require.NoError(t, err)
		src := "IMM a 5\nIMM b 250\nADD a b\nCMP a b\nJMP L|N c\nJMP 0 d\nSTK NONE a\nSTK b NONE\nSTM c d\nLDM d c\nSYS 8 a\n"
		image, err := Assemble(src, cfg)
		require.NoError(t, err)

		table, err := arch.NewOpcodeTable(cfg.Opcodes)
		require.NoError(t, err)
		var listing string
		for off := 0; off < len(image); off += arch.InstructionSize {
			inst, err := program.Decode(image[off:off+arch.InstructionSize], cfg.FieldOrder, table)
			require.NoError(t, err)
			listing += program.Format(inst, cfg) + "\n"
		}
		again, err := Assemble(listing, cfg)
		require.NoError(t, err)
		assert.Equal(t, image, again, id)
	}
}
