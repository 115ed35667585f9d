// Package debugger is an interactive stepper over an emulator session.
// Conditions for "until" are JavaScript expressions evaluated with goja
// against the registers (a b c d s i f), steps and mem(offset).
package debugger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/colorfulnotion/yan85/arch"
	"github.com/colorfulnotion/yan85/emulator"
	"github.com/colorfulnotion/yan85/log"
	"github.com/colorfulnotion/yan85/program"
	"github.com/colorfulnotion/yan85/vmerrors"
	"github.com/dop251/goja"
	"golang.org/x/term"
)

// UntilLimit bounds how far "until" steps before giving up.
const UntilLimit = 1 << 16

const helpText = `commands:
  step [n]           execute n instructions (default 1)
  run [n]            run until fault or n instructions
  until <expr>       step until the JavaScript expression is true
  regs               show registers
  mem <off> [len]    hex dump of the RAM window
  disasm [idx] [n]   list instructions (default: around i)
  eval <expr>        evaluate a JavaScript expression
  quit
`

type Debugger struct {
	emu   *emulator.Emulator
	cfg   *arch.Config
	table arch.OpcodeTable
	js    *goja.Runtime
	out   io.Writer

	fault error // set once the session has ended
}

func New(emu *emulator.Emulator, out io.Writer) (*Debugger, error) {
	cfg := emu.Config()
	table, err := arch.NewOpcodeTable(cfg.Opcodes)
	if err != nil {
		return nil, err
	}
	d := &Debugger{emu: emu, cfg: cfg, table: table, js: goja.New(), out: out}
	if err := d.js.Set("mem", func(off int) int {
		v, err := emu.ReadMemory(byte(off))
		if err != nil {
			panic(d.js.NewGoError(err))
		}
		return int(v)
	}); err != nil {
		return nil, err
	}
	return d, nil
}

// Fault is the error that ended the session, if any.
func (d *Debugger) Fault() error {
	return d.fault
}

// Serve runs the interactive console when in is a terminal and reads plain
// commands otherwise.
func (d *Debugger) Serve(ctx context.Context, in *os.File, historyFile string) error {
	if term.IsTerminal(int(in.Fd())) {
		return d.interactive(ctx, in, historyFile)
	}
	return d.Script(ctx, in)
}

func (d *Debugger) interactive(ctx context.Context, in *os.File, historyFile string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "yan85> ",
		HistoryFile: historyFile,
		Stdin:       in,
		Stdout:      d.out,
	})
	if err != nil {
		return fmt.Errorf("failed to start readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(d.out, "yan85 debugger, %d bytes loaded. Type 'help' for commands.\n", len(d.emu.Memory()))
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return nil
		}
		if d.Exec(ctx, line) {
			return nil
		}
	}
}

// Script executes commands line by line from r.
func (d *Debugger) Script(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if d.Exec(ctx, sc.Text()) {
			return nil
		}
	}
	return sc.Err()
}

// Exec runs one command and reports whether the session should close.
func (d *Debugger) Exec(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]
	log.Debug(log.DebuggerModule, "command", "cmd", cmd, "args", args)

	var err error
	switch cmd {
	case "step", "s":
		err = d.step(args)
	case "run", "c":
		err = d.run(ctx, args)
	case "until", "u":
		err = d.until(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd)))
	case "regs", "r":
		err = d.regs()
	case "mem", "x":
		err = d.mem(args)
	case "disasm", "d":
		err = d.disasm(args)
	case "eval", "e":
		var v goja.Value
		if v, err = d.eval(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd))); err == nil {
			fmt.Fprintln(d.out, v)
		}
	case "help", "h", "?":
		fmt.Fprint(d.out, helpText)
	case "quit", "q", "exit":
		return true
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		fmt.Fprintf(d.out, "error: %v\n", err)
	}
	return false
}

func intArg(args []string, n int, def int) (int, error) {
	if len(args) <= n {
		return def, nil
	}
	v, err := strconv.ParseInt(args[n], 0, 32)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", args[n])
	}
	return int(v), nil
}

func (d *Debugger) ended() error {
	if d.fault != nil {
		return fmt.Errorf("session ended: %w", d.fault)
	}
	return nil
}

// stepOne executes one instruction, recording a fault.
func (d *Debugger) stepOne() error {
	if err := d.emu.Step(); err != nil {
		d.fault = err
		fmt.Fprintf(d.out, "fault %s: %v\n", vmerrors.Code(err), err)
		return err
	}
	return nil
}

func (d *Debugger) step(args []string) error {
	if err := d.ended(); err != nil {
		return err
	}
	n, err := intArg(args, 0, 1)
	if err != nil {
		return err
	}
	for k := 0; k < n; k++ {
		fmt.Fprintln(d.out, d.current())
		if d.stepOne() != nil {
			return nil
		}
	}
	return nil
}

func (d *Debugger) run(ctx context.Context, args []string) error {
	if err := d.ended(); err != nil {
		return err
	}
	n, err := intArg(args, 0, 0)
	if err != nil {
		return err
	}
	steps, err := d.emu.Run(ctx, n)
	fmt.Fprintf(d.out, "%d steps\n", steps)
	switch {
	case errors.Is(err, vmerrors.ErrStepLimit):
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case err != nil:
		d.fault = err
		fmt.Fprintf(d.out, "fault %s: %v\n", vmerrors.Code(err), err)
	}
	return nil
}

func (d *Debugger) until(expr string) error {
	if err := d.ended(); err != nil {
		return err
	}
	if expr == "" {
		return errors.New("until needs an expression")
	}
	prog, err := goja.Compile("until", expr, false)
	if err != nil {
		return err
	}
	for k := 0; k < UntilLimit; k++ {
		if d.stepOne() != nil {
			return nil
		}
		if err := d.bind(); err != nil {
			return err
		}
		v, err := d.js.RunProgram(prog)
		if err != nil {
			return err
		}
		if v.ToBoolean() {
			fmt.Fprintf(d.out, "stopped after %d steps: %s\n", k+1, d.current())
			return nil
		}
	}
	return fmt.Errorf("%w: condition still false after %d steps", vmerrors.ErrStepLimit, UntilLimit)
}

// bind exposes the current registers to JavaScript.
func (d *Debugger) bind() error {
	regs, err := d.emu.Registers()
	if err != nil {
		return err
	}
	for name, v := range regs {
		if err := d.js.Set(name, int(v)); err != nil {
			return err
		}
	}
	return d.js.Set("steps", d.emu.Steps())
}

func (d *Debugger) eval(expr string) (goja.Value, error) {
	if expr == "" {
		return nil, errors.New("eval needs an expression")
	}
	if err := d.bind(); err != nil {
		return nil, err
	}
	return d.js.RunString(expr)
}

func (d *Debugger) regs() error {
	regs, err := d.emu.Registers()
	if err != nil {
		return err
	}
	var sb strings.Builder
	for _, name := range arch.RegisterNames {
		fmt.Fprintf(&sb, "%s=0x%02x ", name, regs[name])
	}
	fmt.Fprintf(&sb, "[%s]", d.cfg.CmpFlags.Names(regs["f"]))
	fmt.Fprintln(d.out, sb.String())
	return nil
}

func (d *Debugger) mem(args []string) error {
	if len(args) == 0 {
		return errors.New("mem needs an offset")
	}
	off, err := intArg(args, 0, 0)
	if err != nil {
		return err
	}
	n, err := intArg(args, 1, 16)
	if err != nil {
		return err
	}
	if off < 0 || off >= arch.RAMSize {
		return fmt.Errorf("offset %d outside the RAM window", off)
	}
	if off+n > arch.RAMSize {
		n = arch.RAMSize - off
	}
	ram := d.emu.RAM()
	for row := off; row < off+n; row += 16 {
		end := row + 16
		if end > off+n {
			end = off + n
		}
		fmt.Fprintf(d.out, "0x%02x: % x\n", row, ram[row:end])
	}
	return nil
}

// current renders the instruction at i.
func (d *Debugger) current() string {
	ip, err := d.emu.ReadRegister(d.cfg.Registers.I)
	if err != nil {
		return "?"
	}
	return d.line(int(ip), true)
}

func (d *Debugger) line(idx int, here bool) string {
	marker := "  "
	if here {
		marker = "=>"
	}
	mem := d.emu.Memory()
	start := idx * arch.InstructionSize
	if idx < 0 || start+arch.InstructionSize > len(mem) {
		return fmt.Sprintf("%s %3d  <out of range>", marker, idx)
	}
	raw := mem[start : start+arch.InstructionSize]
	inst, err := program.Decode(raw, d.cfg.FieldOrder, d.table)
	if err != nil {
		return fmt.Sprintf("%s %3d  %02x %02x %02x  ??", marker, idx, raw[0], raw[1], raw[2])
	}
	return fmt.Sprintf("%s %3d  %02x %02x %02x  %s", marker, idx, raw[0], raw[1], raw[2], program.Annotate(inst, d.cfg))
}

func (d *Debugger) disasm(args []string) error {
	ip, err := d.emu.ReadRegister(d.cfg.Registers.I)
	if err != nil {
		return err
	}
	from, err := intArg(args, 0, int(ip))
	if err != nil {
		return err
	}
	if from < 0 || from > 0xff {
		return fmt.Errorf("instruction index %d out of range", from)
	}
	n, err := intArg(args, 1, 8)
	if err != nil {
		return err
	}
	for idx := from; idx < from+n && idx <= 0xff; idx++ {
		fmt.Fprintln(d.out, d.line(idx, idx == int(ip)))
	}
	return nil
}
