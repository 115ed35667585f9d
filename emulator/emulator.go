// Package emulator executes 3-byte instructions over one unified memory that
// holds code, a 256-byte RAM window and the memory-mapped register bank.
package emulator

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/yan85/arch"
	"github.com/colorfulnotion/yan85/emulator/trace"
	"github.com/colorfulnotion/yan85/telemetry"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// MemorySize is the smallest buffer holding every region.
const MemorySize = arch.RegisterBase + arch.NumRegisters

// NewMemory copies image to the start of a buffer of at least MemorySize bytes.
func NewMemory(image []byte) []byte {
	n := len(image)
	if n < MemorySize {
		n = MemorySize
	}
	mem := make([]byte, n)
	copy(mem, image)
	return mem
}

// Emulator owns its memory and configuration for the whole session. It is
// not safe for concurrent use.
type Emulator struct {
	mem   []byte
	cfg   *arch.Config
	table arch.OpcodeTable

	host    HostEnv
	tracer  trace.StepWriter
	profile *Profile
	spans   oteltrace.Tracer
	span    oteltrace.Span

	steps int
}

type Option func(*Emulator)

// WithHostEnv replaces the operating system as the target of syscalls.
func WithHostEnv(h HostEnv) Option {
	return func(e *Emulator) { e.host = h }
}

// WithTracer records every executed instruction.
func WithTracer(w trace.StepWriter) Option {
	return func(e *Emulator) { e.tracer = w }
}

// WithProfile counts executed kinds and syscalls into p.
func WithProfile(p *Profile) Option {
	return func(e *Emulator) { e.profile = p }
}

// WithTelemetry sends run spans through c instead of the global provider.
func WithTelemetry(c *telemetry.Client) Option {
	return func(e *Emulator) { e.spans = c.Tracer() }
}

// New takes ownership of mem. The buffer is used as-is; use NewMemory to pad
// an image so every region exists.
func New(mem []byte, cfg *arch.Config, opts ...Option) (*Emulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := arch.NewOpcodeTable(cfg.Opcodes)
	if err != nil {
		return nil, fmt.Errorf("opcode table: %w", err)
	}
	e := &Emulator{
		mem:   mem,
		cfg:   cfg,
		table: table,
		host:  OSHostEnv{},
		span:  oteltrace.SpanFromContext(context.Background()),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.spans == nil {
		e.spans = telemetry.Tracer()
	}
	return e, nil
}

func (e *Emulator) Config() *arch.Config {
	return e.cfg
}

// Memory exposes the live buffer.
func (e *Emulator) Memory() []byte {
	return e.mem
}

// Steps is the number of instructions dispatched so far.
func (e *Emulator) Steps() int {
	return e.steps
}
