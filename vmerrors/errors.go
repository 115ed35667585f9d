// Package vmerrors holds the error taxonomy shared by the decoder, the
// engine and the configuration loader.
package vmerrors

import (
	"errors"
	"strings"
)

// Execution (E) Errors
var (
	ErrUnknownRegister     = errors.New("E1|UnknownRegister: Register identifier matches none of the configured registers.")
	ErrUnrecognizedOpcode  = errors.New("E2|UnrecognizedOpcode: Opcode byte matches none of the configured opcodes.")
	ErrAddressOutOfRange   = errors.New("E3|AddressOutOfRange: Resolved address lies outside the memory buffer.")
	ErrUnrecognizedSyscall = errors.New("E4|UnrecognizedSyscall: Syscall number matches none of the configured syscalls.")
	ErrOther               = errors.New("E5|Other: Instruction pointer overflow, unterminated string or unrepresentable descriptor.")
)

// Configuration (C) Errors
var (
	ErrInvalidConfig = errors.New("C1|InvalidConfig: Configuration violates an encoding invariant.")
	ErrUnknownPreset = errors.New("C2|UnknownPreset: No embedded configuration with that name.")
)

// Run (R) Errors
var (
	ErrStepLimit = errors.New("R1|StepLimit: Step limit reached before the session ended.")
)

var all = []error{
	ErrUnknownRegister, ErrUnrecognizedOpcode, ErrAddressOutOfRange, ErrUnrecognizedSyscall, ErrOther,
	ErrInvalidConfig, ErrUnknownPreset, ErrStepLimit,
}

// sentinel returns the taxonomy error err wraps, or nil.
func sentinel(err error) error {
	for _, s := range all {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}

// Name extracts the error name, e.g. "UnknownRegister".
func Name(err error) string {
	if err == nil {
		return "No Error"
	}
	s := sentinel(err)
	if s == nil {
		return err.Error()
	}
	parts := strings.SplitN(s.Error(), "|", 2)
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

// Code extracts the error code, e.g. "E1". Errors outside the taxonomy have no code.
func Code(err error) string {
	s := sentinel(err)
	if s == nil {
		return ""
	}
	parts := strings.SplitN(s.Error(), "|", 2)
	return strings.TrimSpace(parts[0])
}

// CodeWithName returns "Code_Name", or "" for errors outside the taxonomy.
func CodeWithName(err error) string {
	code := Code(err)
	if code == "" {
		return ""
	}
	return code + "_" + Name(err)
}

// Desc extracts the sentinel description.
func Desc(err error) string {
	s := sentinel(err)
	if s == nil {
		return "DESC NOT SET"
	}
	parts := strings.SplitN(s.Error(), ":", 2)
	return strings.TrimSpace(parts[1])
}
