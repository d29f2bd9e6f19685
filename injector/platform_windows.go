//go:build windows

package injector

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"github.com/Mrs4s/go-x86-injector/injector/win32"
)

const injectAccess = windows.PROCESS_CREATE_THREAD |
	windows.PROCESS_VM_READ |
	windows.PROCESS_VM_WRITE |
	windows.PROCESS_VM_OPERATION |
	windows.PROCESS_QUERY_INFORMATION

func defaultOpener() Opener     { return ProcessOpener{} }
func defaultHost() Host         { return CurrentProcess{} }
func defaultResolver() Resolver { return LocalResolver{} }

// ProcessOpener opens live processes with exactly the rights injection needs.
type ProcessOpener struct{}

func (ProcessOpener) Open(pid uint32) (Target, error) {
	h, err := windows.OpenProcess(injectAccess, false, pid)
	if err != nil {
		return nil, errors.Wrap(err, "OpenProcess")
	}
	return &process{pid: pid, handle: h}, nil
}

// CurrentProcess is the Host for the running injector.
type CurrentProcess struct{}

func (CurrentProcess) IsEmulated() (bool, error) {
	var wow64 bool
	err := windows.IsWow64Process(windows.CurrentProcess(), &wow64)
	return wow64, err
}

// LocalResolver uses the export's address in the injector itself. System DLLs share
// their base across processes of one bitness within a session, so it holds remotely too.
type LocalResolver struct{}

func (LocalResolver) Resolve(_ Target, module, symbol string) (uintptr, error) {
	h, err := windows.LoadLibrary(module)
	if err != nil {
		return 0, errors.Wrapf(err, "LoadLibrary %s", module)
	}
	defer windows.FreeLibrary(h)
	addr, err := windows.GetProcAddress(h, symbol)
	if err != nil {
		return 0, errors.Wrapf(err, "GetProcAddress %s", symbol)
	}
	return addr, nil
}

type process struct {
	pid    uint32
	handle windows.Handle
}

func (p *process) PID() uint32 {
	return p.pid
}

func (p *process) IsEmulated() (bool, error) {
	var wow64 bool
	err := windows.IsWow64Process(p.handle, &wow64)
	return wow64, err
}

func (p *process) Alloc(size int) (uintptr, error) {
	addr, err := win32.VirtualAllocEx(p.handle, 0, uintptr(size), win32.MEM_COMMIT|win32.MEM_RESERVE, win32.PAGE_READWRITE)
	if err != nil {
		return 0, errors.Wrap(err, "VirtualAllocEx")
	}
	return addr, nil
}

func (p *process) Write(addr uintptr, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var written uintptr
	if err := windows.WriteProcessMemory(p.handle, addr, &data[0], uintptr(len(data)), &written); err != nil {
		return errors.Wrap(err, "WriteProcessMemory")
	}
	if written != uintptr(len(data)) {
		return errors.Errorf("WriteProcessMemory: wrote %d of %d bytes", written, len(data))
	}
	return nil
}

func (p *process) Free(addr uintptr) error {
	return errors.Wrap(win32.VirtualFreeEx(p.handle, addr, 0, win32.MEM_RELEASE), "VirtualFreeEx")
}

func (p *process) CreateThread(start, arg uintptr) (Thread, error) {
	h, _, err := win32.CreateRemoteThread(p.handle, nil, 0, start, arg, 0)
	if err != nil {
		return nil, errors.Wrap(err, "CreateRemoteThread")
	}
	return &thread{handle: h}, nil
}

func (p *process) Modules() ([]Module, error) {
	handles := make([]windows.Handle, 512)
	n, err := win32.EnumProcessModules(p.handle, handles)
	if err != nil {
		return nil, err
	}
	if n > len(handles) {
		handles = make([]windows.Handle, n+64)
		if n, err = win32.EnumProcessModules(p.handle, handles); err != nil {
			return nil, err
		}
	}
	if n < len(handles) {
		handles = handles[:n]
	}
	modules := make([]Module, 0, len(handles))
	for _, h := range handles {
		path, err := win32.GetModuleFileNameEx(p.handle, h)
		if err != nil {
			continue
		}
		modules = append(modules, Module{Path: path, Base: uintptr(h)})
	}
	return modules, nil
}

func (p *process) Close() error {
	return windows.CloseHandle(p.handle)
}

type thread struct {
	handle windows.Handle
}

func (t *thread) Wait(timeout time.Duration) (bool, error) {
	ev, err := windows.WaitForSingleObject(t.handle, waitMillis(timeout))
	if err != nil {
		return false, errors.Wrap(err, "WaitForSingleObject")
	}
	switch ev {
	case windows.WAIT_OBJECT_0:
		return true, nil
	case uint32(windows.WAIT_TIMEOUT):
		return false, nil
	}
	return false, errors.Errorf("WaitForSingleObject: unexpected result 0x%X", ev)
}

func (t *thread) ExitCode() (uint32, error) {
	return win32.GetExitCodeThread(t.handle)
}

func (t *thread) Close() error {
	return windows.CloseHandle(t.handle)
}
