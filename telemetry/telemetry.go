// Package telemetry wires the emulator to OpenTelemetry. Runs become spans;
// syscalls and terminating errors become span events.
package telemetry

// Span and event names.
const (
	SpanRun = "emulator.run"

	EventSyscall     = "syscall"
	EventSyscallFail = "syscall.failed"
	EventFault       = "fault"
)

// Attribute keys.
const (
	AttrSteps     = "yan85.steps"
	AttrMaxSteps  = "yan85.max_steps"
	AttrErrorCode = "yan85.error_code"
	AttrSyscall   = "yan85.syscall"
	AttrFD        = "yan85.fd"
	AttrCount     = "yan85.count"
	AttrIP        = "yan85.ip"
)

const TracerName = "github.com/colorfulnotion/yan85"
