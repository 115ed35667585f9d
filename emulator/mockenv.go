package emulator

import (
	"bytes"
	"sync"

	"golang.org/x/sys/unix"
)

// MockHostEnv implements HostEnv over in-memory files. Descriptors 0, 1 and 2
// are stdin, stdout and stderr; opened files get descriptors from 3 upward.
type MockHostEnv struct {
	mu     sync.Mutex
	files  map[string][]byte
	open   map[int]*mockFile
	nextFD int
	fail   map[int]error
}

type mockFile struct {
	path string
	data *bytes.Buffer
}

func NewMockHostEnv() *MockHostEnv {
	return &MockHostEnv{
		files: make(map[string][]byte),
		open: map[int]*mockFile{
			0: {path: "<stdin>", data: new(bytes.Buffer)},
			1: {path: "<stdout>", data: new(bytes.Buffer)},
			2: {path: "<stderr>", data: new(bytes.Buffer)},
		},
		nextFD: 3,
		fail:   make(map[int]error),
	}
}

// AddFile makes path openable with the given contents.
func (mh *MockHostEnv) AddFile(path string, data []byte) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	mh.files[path] = append([]byte(nil), data...)
}

// SetStdin replaces what reads from descriptor 0 return.
func (mh *MockHostEnv) SetStdin(data []byte) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	mh.open[0].data = bytes.NewBuffer(append([]byte(nil), data...))
}

// SetNextFD sets the descriptor the next successful Open returns.
func (mh *MockHostEnv) SetNextFD(fd int) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	mh.nextFD = fd
}

// Fail makes every Read and Write on fd return err.
func (mh *MockHostEnv) Fail(fd int, err error) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	mh.fail[fd] = err
}

// Output returns everything written to fd so far.
func (mh *MockHostEnv) Output(fd int) []byte {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	f, ok := mh.open[fd]
	if !ok {
		return nil
	}
	return append([]byte(nil), f.data.Bytes()...)
}

func (mh *MockHostEnv) Open(path string, flags int, mode uint32) (int, error) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	data, ok := mh.files[path]
	if !ok {
		if flags&unix.O_CREAT == 0 {
			return -1, unix.ENOENT
		}
		mh.files[path] = nil
	}
	fd := mh.nextFD
	mh.nextFD++
	mh.open[fd] = &mockFile{path: path, data: bytes.NewBuffer(append([]byte(nil), data...))}
	return fd, nil
}

func (mh *MockHostEnv) Read(fd int, p []byte) (int, error) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	if err := mh.fail[fd]; err != nil {
		return -1, err
	}
	f, ok := mh.open[fd]
	if !ok {
		return -1, unix.EBADF
	}
	n, _ := f.data.Read(p)
	return n, nil
}

func (mh *MockHostEnv) Write(fd int, p []byte) (int, error) {
	mh.mu.Lock()
	defer mh.mu.Unlock()
	if err := mh.fail[fd]; err != nil {
		return -1, err
	}
	f, ok := mh.open[fd]
	if !ok {
		return -1, unix.EBADF
	}
	return f.data.Write(p)
}
