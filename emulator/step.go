package emulator

import (
	"fmt"
	"math"

	"github.com/colorfulnotion/yan85/arch"
	"github.com/colorfulnotion/yan85/emulator/trace"
	"github.com/colorfulnotion/yan85/log"
	"github.com/colorfulnotion/yan85/program"
	"github.com/colorfulnotion/yan85/vmerrors"
)

// Step fetches, decodes and executes one instruction. The instruction
// pointer is incremented before dispatch, so a taken jump overwrites it.
// Any error ends the session; effects already applied are not undone.
// Step fails with ErrOther when i is already 255, so code slot 255
// (0x2fd-0x2ff) can never execute.
func (e *Emulator) Step() error {
	regs := e.cfg.Registers
	ip, err := e.ReadRegister(regs.I)
	if err != nil {
		return err
	}
	if ip == math.MaxUint8 {
		return fmt.Errorf("%w: instruction pointer overflow", vmerrors.ErrOther)
	}
	if err := e.WriteRegister(regs.I, ip+1); err != nil {
		return err
	}

	start := int(ip) * arch.InstructionSize
	if start+arch.InstructionSize > len(e.mem) {
		return fmt.Errorf("%w: fetch at 0x%04x", vmerrors.ErrAddressOutOfRange, start)
	}
	raw := e.mem[start : start+arch.InstructionSize]
	inst, err := program.Decode(raw, e.cfg.FieldOrder, e.table)
	if err != nil {
		return err
	}

	e.steps++
	if log.TraceEnabled(log.EmulatorModule) {
		log.Trace(log.EmulatorModule, "step", "n", e.steps, "ip", ip, "regs", e.dumpRegisters(), "inst", program.Format(inst, e.cfg))
	}
	var rec *trace.Step
	if e.tracer != nil {
		rec = trace.NewStep(e.steps, ip, raw)
		rec.Instruction = program.Format(inst, e.cfg)
	}
	if e.profile != nil {
		e.profile.countKind(inst.Kind)
	}

	err = e.dispatch(inst, rec)

	if rec != nil {
		if regs, rerr := e.Registers(); rerr == nil {
			rec.SetPostRegisters(regs)
			rec.PostFlags = e.cfg.CmpFlags.Names(regs["f"])
		}
		if err != nil {
			rec.Error = vmerrors.CodeWithName(err)
		}
		if werr := e.tracer.WriteStep(rec); werr != nil {
			log.Warn(log.EmulatorModule, "trace write failed", "err", werr)
		}
	}
	return err
}

func (e *Emulator) dispatch(inst program.Instruction, rec *trace.Step) error {
	switch inst.Kind {
	case arch.KindImm:
		return e.WriteRegister(inst.Left, inst.Right)
	case arch.KindAdd:
		return e.add(inst.Left, inst.Right)
	case arch.KindStk:
		return e.stack(inst.Left, inst.Right)
	case arch.KindStm:
		return e.storeIndirect(inst.Left, inst.Right)
	case arch.KindLdm:
		return e.loadIndirect(inst.Left, inst.Right)
	case arch.KindCmp:
		return e.compare(inst.Left, inst.Right)
	case arch.KindJmp:
		return e.jump(inst.Left, inst.Right)
	case arch.KindSys:
		return e.syscall(inst.Left, inst.Right, rec)
	}
	return fmt.Errorf("%w: kind %s", vmerrors.ErrUnrecognizedOpcode, inst.Kind)
}

func (e *Emulator) add(dst, src byte) error {
	a, err := e.ReadRegister(dst)
	if err != nil {
		return err
	}
	b, err := e.ReadRegister(src)
	if err != nil {
		return err
	}
	return e.WriteRegister(dst, a+b)
}

// stack pushes before it pops. The stack pointer wraps without a guard.
func (e *Emulator) stack(pop, push byte) error {
	s := e.cfg.Registers.S
	if push != arch.NoneRegister {
		sp, err := e.ReadRegister(s)
		if err != nil {
			return err
		}
		if err := e.WriteRegister(s, sp+1); err != nil {
			return err
		}
		v, err := e.ReadRegister(push)
		if err != nil {
			return err
		}
		if sp, err = e.ReadRegister(s); err != nil {
			return err
		}
		if err := e.WriteMemory(sp, v); err != nil {
			return err
		}
	}
	if pop != arch.NoneRegister {
		sp, err := e.ReadRegister(s)
		if err != nil {
			return err
		}
		v, err := e.ReadMemory(sp)
		if err != nil {
			return err
		}
		if err := e.WriteRegister(pop, v); err != nil {
			return err
		}
		if sp, err = e.ReadRegister(s); err != nil {
			return err
		}
		if err := e.WriteRegister(s, sp-1); err != nil {
			return err
		}
	}
	return nil
}

// storeIndirect writes src to the RAM offset held in dst.
func (e *Emulator) storeIndirect(dst, src byte) error {
	off, err := e.ReadRegister(dst)
	if err != nil {
		return err
	}
	v, err := e.ReadRegister(src)
	if err != nil {
		return err
	}
	return e.WriteMemory(off, v)
}

// loadIndirect reads the RAM offset held in src into dst.
func (e *Emulator) loadIndirect(dst, src byte) error {
	off, err := e.ReadRegister(src)
	if err != nil {
		return err
	}
	v, err := e.ReadMemory(off)
	if err != nil {
		return err
	}
	return e.WriteRegister(dst, v)
}

// CompareFlags is the flag byte a Cmp of left and right produces.
func CompareFlags(left, right byte, masks arch.CmpFlags) byte {
	var flags byte
	if left == 0 && right == 0 {
		flags |= masks.Zero
	}
	switch {
	case left < right:
		flags |= masks.Smaller
	case left > right:
		flags |= masks.Bigger
	default:
		flags |= masks.Equal
	}
	if left != right {
		flags |= masks.NotEqual
	}
	return flags
}

func (e *Emulator) compare(left, right byte) error {
	l, err := e.ReadRegister(left)
	if err != nil {
		return err
	}
	r, err := e.ReadRegister(right)
	if err != nil {
		return err
	}
	return e.WriteRegister(e.cfg.Registers.F, CompareFlags(l, r, e.cfg.CmpFlags))
}

// jump sets i to the value of dst when flags is 0 or shares a bit with f.
func (e *Emulator) jump(flags, dst byte) error {
	if flags != 0 {
		f, err := e.ReadRegister(e.cfg.Registers.F)
		if err != nil {
			return err
		}
		if f&flags == 0 {
			return nil
		}
	}
	target, err := e.ReadRegister(dst)
	if err != nil {
		return err
	}
	return e.WriteRegister(e.cfg.Registers.I, target)
}
