package arch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/yan85/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPresets(t *testing.T) {
	for _, id := range Presets() {
		t.Run(id, func(t *testing.T) {
			cfg, err := Load(id)
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
		})
	}

	def := Default()
	assert.Equal(t, byte(0x20), def.Opcodes.Imm)
	assert.Equal(t, byte(0x80), def.Opcodes.Add)
	assert.Equal(t, DefaultFieldOrder, def.FieldOrder)

	v, err := Load("variant")
	require.NoError(t, err)
	assert.Equal(t, FieldOrder{Opcode: 2, Left: 0, Right: 1}, v.FieldOrder)
	assert.Equal(t, byte(0x10), v.Opcodes.Imm)
	assert.Equal(t, byte(0x08), v.Registers.A)
}

func TestLoadUnknownPreset(t *testing.T) {
	_, err := Load("nosuchpreset")
	require.ErrorIs(t, err, vmerrors.ErrUnknownPreset)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.yml")
	data, err := configFS.ReadFile("configs/variant.yaml")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, byte(0x80), cfg.Opcodes.Jmp)

	jsonPath := filepath.Join(dir, "target.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(Default().String()), 0o644))
	cfg, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, *Default(), *cfg)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"duplicate opcode", func(c *Config) { c.Opcodes.Add = c.Opcodes.Imm }},
		{"duplicate register", func(c *Config) { c.Registers.B = c.Registers.A }},
		{"zero register", func(c *Config) { c.Registers.F = 0 }},
		{"nonzero none", func(c *Config) { c.Registers.None = 0x99 }},
		{"field order repeat", func(c *Config) { c.FieldOrder = FieldOrder{0, 0, 2} }},
		{"field order range", func(c *Config) { c.FieldOrder = FieldOrder{0, 1, 3} }},
		{"duplicate syscall", func(c *Config) { c.Syscalls.Write = c.Syscalls.Open }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), vmerrors.ErrInvalidConfig)
		})
	}
}

func TestRegisterLookups(t *testing.T) {
	regs := Default().Registers

	addr, ok := regs.Address(regs.A)
	require.True(t, ok)
	assert.Equal(t, uint16(0x400), addr)
	addr, ok = regs.Address(regs.F)
	require.True(t, ok)
	assert.Equal(t, uint16(0x406), addr)

	addr, ok = regs.Address(NoneRegister)
	require.True(t, ok)
	assert.Equal(t, NoneAddress, addr)

	_, ok = regs.Address(0x03)
	assert.False(t, ok)

	assert.Equal(t, "d", regs.Name(regs.D))
	assert.Equal(t, "NONE", regs.Name(0))
	assert.Equal(t, "Unknown", regs.Name(0x03))

	id, ok := regs.ByName("S")
	require.True(t, ok)
	assert.Equal(t, regs.S, id)
	id, ok = regs.ByName("NONE")
	require.True(t, ok)
	assert.Equal(t, NoneRegister, id)
	_, ok = regs.ByName("x")
	assert.False(t, ok)
}

func TestOpcodeTable(t *testing.T) {
	cfg := Default()
	table, err := NewOpcodeTable(cfg.Opcodes)
	require.NoError(t, err)
	require.Len(t, table, len(Kinds))
	for _, k := range Kinds {
		b, ok := cfg.Opcodes.Byte(k)
		require.True(t, ok)
		got, ok := table.Lookup(b)
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := table.Lookup(0x03)
	assert.False(t, ok)

	k, ok := KindByMnemonic("ldm")
	require.True(t, ok)
	assert.Equal(t, KindLdm, k)
	assert.Equal(t, "LDM", k.String())
}

func TestCmpFlagNames(t *testing.T) {
	f := Default().CmpFlags
	assert.Equal(t, "0", f.Names(0))
	assert.Equal(t, "L|N", f.Names(f.Smaller|f.NotEqual))
	assert.Equal(t, "E|Z", f.Names(f.Equal|f.Zero))
	assert.Equal(t, "G|0x80", f.Names(f.Bigger|0x80))

	m, ok := f.ByLetter("z")
	require.True(t, ok)
	assert.Equal(t, f.Zero, m)
}

func TestSyscallName(t *testing.T) {
	s := Default().Syscalls
	assert.Equal(t, "open", s.Name(s.Open))
	assert.Equal(t, "read_memory", s.Name(s.ReadMemory))
	assert.Equal(t, "write", s.Name(s.Write))
	assert.Equal(t, "", s.Name(0x77))
}

func TestTree(t *testing.T) {
	out := Default().Tree()
	assert.Contains(t, out, "IMM = 0x20")
	assert.Contains(t, out, "a = 0x20 @ 0x400")
	assert.Contains(t, out, "ram       0x300-0x3ff")
}
