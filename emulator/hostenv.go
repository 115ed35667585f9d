package emulator

import (
	"golang.org/x/sys/unix"
)

// HostEnv is the host side of the three syscalls. Calls block; a stalled
// host call stalls the session.
type HostEnv interface {
	Open(path string, flags int, mode uint32) (fd int, err error)
	Read(fd int, p []byte) (n int, err error)
	Write(fd int, p []byte) (n int, err error)
}

// OSHostEnv forwards syscalls to the operating system.
type OSHostEnv struct{}

func (OSHostEnv) Open(path string, flags int, mode uint32) (int, error) {
	return unix.Open(path, flags, mode)
}

func (OSHostEnv) Read(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func (OSHostEnv) Write(fd int, p []byte) (int, error) {
	return unix.Write(fd, p)
}
