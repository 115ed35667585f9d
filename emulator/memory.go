package emulator

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/yan85/arch"
	"github.com/colorfulnotion/yan85/vmerrors"
)

func (e *Emulator) readRaw(addr uint16) (byte, error) {
	if int(addr) >= len(e.mem) {
		return 0, fmt.Errorf("%w: 0x%04x", vmerrors.ErrAddressOutOfRange, addr)
	}
	return e.mem[addr], nil
}

func (e *Emulator) writeRaw(addr uint16, v byte) error {
	if int(addr) >= len(e.mem) {
		return fmt.Errorf("%w: 0x%04x", vmerrors.ErrAddressOutOfRange, addr)
	}
	e.mem[addr] = v
	return nil
}

func (e *Emulator) registerAddress(id byte) (uint16, error) {
	addr, ok := e.cfg.Registers.Address(id)
	if !ok {
		return 0, fmt.Errorf("%w: 0x%02x", vmerrors.ErrUnknownRegister, id)
	}
	return addr, nil
}

// ReadRegister reads the bank slot of register id. The none identifier
// resolves outside every buffer and so fails as out of range.
func (e *Emulator) ReadRegister(id byte) (byte, error) {
	addr, err := e.registerAddress(id)
	if err != nil {
		return 0, err
	}
	return e.readRaw(addr)
}

func (e *Emulator) WriteRegister(id byte, v byte) error {
	addr, err := e.registerAddress(id)
	if err != nil {
		return err
	}
	return e.writeRaw(addr, v)
}

// ReadMemory reads the RAM window at offset.
func (e *Emulator) ReadMemory(offset byte) (byte, error) {
	return e.readRaw(arch.RAMBase + uint16(offset))
}

func (e *Emulator) WriteMemory(offset byte, v byte) error {
	return e.writeRaw(arch.RAMBase+uint16(offset), v)
}

// ReadString collects bytes from offset up to a zero byte. Running past
// offset 255 without a terminator fails.
func (e *Emulator) ReadString(offset byte) (string, error) {
	var sb strings.Builder
	for {
		c, err := e.ReadMemory(offset)
		if err != nil {
			return "", err
		}
		if c == 0 {
			return sb.String(), nil
		}
		sb.WriteByte(c)
		if offset == 0xff {
			return "", fmt.Errorf("%w: unterminated string", vmerrors.ErrOther)
		}
		offset++
	}
}

// Registers returns every register value by mnemonic.
func (e *Emulator) Registers() (map[string]byte, error) {
	out := make(map[string]byte, arch.NumRegisters)
	for n, id := range e.cfg.Registers.IDs() {
		v, err := e.ReadRegister(id)
		if err != nil {
			return nil, err
		}
		out[arch.RegisterNames[n]] = v
	}
	return out, nil
}

// RAM returns a copy of the RAM window. Bytes beyond the buffer read as zero.
func (e *Emulator) RAM() []byte {
	ram := make([]byte, arch.RAMSize)
	if len(e.mem) > arch.RAMBase {
		copy(ram, e.mem[arch.RAMBase:])
	}
	return ram
}

func (e *Emulator) dumpRegisters() string {
	var sb strings.Builder
	for n, id := range e.cfg.Registers.IDs() {
		v, err := e.ReadRegister(id)
		if n > 0 {
			sb.WriteString(" ")
		}
		if err != nil {
			fmt.Fprintf(&sb, "%s:?", arch.RegisterNames[n])
			continue
		}
		fmt.Fprintf(&sb, "%s:%d", arch.RegisterNames[n], v)
	}
	return sb.String()
}
