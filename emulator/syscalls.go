package emulator

import (
	"fmt"

	"github.com/colorfulnotion/yan85/arch"
	"github.com/colorfulnotion/yan85/emulator/trace"
	"github.com/colorfulnotion/yan85/log"
	"github.com/colorfulnotion/yan85/telemetry"
	"github.com/colorfulnotion/yan85/vmerrors"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// syscall dispatches on the configured numbers. Host failures in read and
// write are logged and swallowed; dst is left untouched. An open whose
// descriptor does not fit in a byte is a hard failure.
func (e *Emulator) syscall(num, dst byte, rec *trace.Step) error {
	sc := e.cfg.Syscalls
	name := sc.Name(num)
	if rec != nil {
		rec.Syscall = name
	}
	if e.profile != nil && name != "" {
		e.profile.countSyscall(name)
	}
	switch name {
	case "write":
		return e.sysWrite(dst)
	case "read_memory":
		return e.sysRead()
	case "open":
		return e.sysOpen(dst)
	}
	return fmt.Errorf("%w: 0x%02x", vmerrors.ErrUnrecognizedSyscall, num)
}

// ioArgs reads the descriptor, RAM offset and clamped length from a, b and c.
func (e *Emulator) ioArgs() (fd, off byte, n int, err error) {
	regs := e.cfg.Registers
	if fd, err = e.ReadRegister(regs.A); err != nil {
		return
	}
	if off, err = e.ReadRegister(regs.B); err != nil {
		return
	}
	c, err := e.ReadRegister(regs.C)
	if err != nil {
		return
	}
	n = int(c)
	if room := arch.RAMSize - int(off); n > room {
		n = room
	}
	return fd, off, n, nil
}

func (e *Emulator) sysWrite(dst byte) error {
	fd, off, n, err := e.ioArgs()
	if err != nil {
		return err
	}
	start := arch.RAMBase + int(off)
	if start+n > len(e.mem) {
		return fmt.Errorf("%w: 0x%04x", vmerrors.ErrAddressOutOfRange, start+n)
	}
	written, herr := e.host.Write(int(fd), e.mem[start:start+n])
	if herr != nil || written < 0 {
		log.Warn(log.SyscallModule, "write failed", "fd", fd, "len", n, "err", herr)
		e.span.AddEvent(telemetry.EventSyscallFail, oteltrace.WithAttributes(
			attribute.String(telemetry.AttrSyscall, "write"), attribute.Int(telemetry.AttrFD, int(fd))))
		return nil
	}
	log.Debug(log.SyscallModule, "write", "fd", fd, "off", off, "len", n, "written", written)
	e.span.AddEvent(telemetry.EventSyscall, oteltrace.WithAttributes(
		attribute.String(telemetry.AttrSyscall, "write"), attribute.Int(telemetry.AttrFD, int(fd)), attribute.Int(telemetry.AttrCount, written)))
	return e.WriteRegister(dst, byte(written))
}

// sysRead copies what the host returns into RAM byte by byte. The count is
// not stored anywhere.
func (e *Emulator) sysRead() error {
	fd, off, n, err := e.ioArgs()
	if err != nil {
		return err
	}
	buf := make([]byte, n)
	got, herr := e.host.Read(int(fd), buf)
	if herr != nil || got < 0 {
		log.Warn(log.SyscallModule, "read failed", "fd", fd, "len", n, "err", herr)
		e.span.AddEvent(telemetry.EventSyscallFail, oteltrace.WithAttributes(
			attribute.String(telemetry.AttrSyscall, "read_memory"), attribute.Int(telemetry.AttrFD, int(fd))))
		return nil
	}
	if got > n {
		got = n
	}
	for k := 0; k < got; k++ {
		if err := e.WriteMemory(off+byte(k), buf[k]); err != nil {
			return err
		}
	}
	log.Debug(log.SyscallModule, "read", "fd", fd, "off", off, "len", n, "read", got)
	e.span.AddEvent(telemetry.EventSyscall, oteltrace.WithAttributes(
		attribute.String(telemetry.AttrSyscall, "read_memory"), attribute.Int(telemetry.AttrFD, int(fd)), attribute.Int(telemetry.AttrCount, got)))
	return nil
}

func (e *Emulator) sysOpen(dst byte) error {
	regs := e.cfg.Registers
	off, err := e.ReadRegister(regs.A)
	if err != nil {
		return err
	}
	path, err := e.ReadString(off)
	if err != nil {
		return err
	}
	flags, err := e.ReadRegister(regs.B)
	if err != nil {
		return err
	}
	mode, err := e.ReadRegister(regs.C)
	if err != nil {
		return err
	}
	fd, herr := e.host.Open(path, int(flags), uint32(mode))
	if herr != nil {
		return fmt.Errorf("%w: open %q: %v", vmerrors.ErrOther, path, herr)
	}
	if fd < 0 || fd > 0xff {
		return fmt.Errorf("%w: descriptor %d does not fit in a byte", vmerrors.ErrOther, fd)
	}
	log.Debug(log.SyscallModule, "open", "path", path, "flags", flags, "mode", mode, "fd", fd)
	e.span.AddEvent(telemetry.EventSyscall, oteltrace.WithAttributes(
		attribute.String(telemetry.AttrSyscall, "open"), attribute.Int(telemetry.AttrFD, fd)))
	return e.WriteRegister(dst, byte(fd))
}
