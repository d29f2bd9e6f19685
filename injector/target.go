package injector

import "time"

// Module is one entry of a process's loaded-module list.
type Module struct {
	Path string
	Base uintptr
}

// Target is an open process with rights to allocate, write and start threads in it.
type Target interface {
	PID() uint32
	// IsEmulated reports whether the process runs under 32-bit emulation (WOW64).
	IsEmulated() (bool, error)
	Alloc(size int) (uintptr, error)
	Write(addr uintptr, data []byte) error
	Free(addr uintptr) error
	CreateThread(start, arg uintptr) (Thread, error)
	Modules() ([]Module, error)
	Close() error
}

// Thread is a thread started inside a Target.
type Thread interface {
	// Wait blocks until the thread exits or timeout elapses. finished is false on timeout.
	Wait(timeout time.Duration) (finished bool, err error)
	ExitCode() (uint32, error)
	Close() error
}

type Opener interface {
	Open(pid uint32) (Target, error)
}

// Host describes the injector's own process.
type Host interface {
	IsEmulated() (bool, error)
}

// Resolver finds the address of an exported function as seen from inside t.
type Resolver interface {
	Resolve(t Target, module, symbol string) (uintptr, error)
}
