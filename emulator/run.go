package emulator

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/yan85/log"
	"github.com/colorfulnotion/yan85/telemetry"
	"github.com/colorfulnotion/yan85/vmerrors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Run steps until an instruction fails, ctx is done or maxSteps instructions
// have executed (0 means no limit). It returns how many instructions completed in
// this call and the terminating error; hitting the limit yields ErrStepLimit.
// Cancellation is only observed between instructions.
func (e *Emulator) Run(ctx context.Context, maxSteps int) (steps int, err error) {
	ctx, span := e.spans.Start(ctx, telemetry.SpanRun,
		oteltrace.WithAttributes(attribute.Int(telemetry.AttrMaxSteps, maxSteps)))
	prev := e.span
	e.span = span
	defer func() {
		span.SetAttributes(attribute.Int(telemetry.AttrSteps, steps))
		if err != nil {
			span.SetAttributes(attribute.String(telemetry.AttrErrorCode, vmerrors.CodeWithName(err)))
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		e.span = prev
	}()

	for maxSteps == 0 || steps < maxSteps {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		if err := e.Step(); err != nil {
			ip, _ := e.ReadRegister(e.cfg.Registers.I)
			span.AddEvent(telemetry.EventFault, oteltrace.WithAttributes(attribute.Int(telemetry.AttrIP, int(ip))))
			log.Debug(log.EmulatorModule, "session ended", "steps", steps, "err", err)
			return steps, err
		}
		steps++
	}
	return steps, fmt.Errorf("%w: %d", vmerrors.ErrStepLimit, maxSteps)
}
