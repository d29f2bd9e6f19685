//go:build windows

package scanner

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

// ProcessMemory reads a live process through a handle holding
// PROCESS_VM_READ and PROCESS_QUERY_INFORMATION.
type ProcessMemory struct {
	handle windows.Handle
	owned  bool
}

// NewProcessMemory wraps a handle the caller already opened. Close leaves it alone.
func NewProcessMemory(h windows.Handle) *ProcessMemory {
	return &ProcessMemory{handle: h}
}

// OpenProcessMemory opens pid for reading.
func OpenProcessMemory(pid uint32) (*ProcessMemory, error) {
	h, err := windows.OpenProcess(windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION, false, pid)
	if err != nil {
		return nil, errors.Wrapf(err, "open process %d error", pid)
	}
	return &ProcessMemory{handle: h, owned: true}, nil
}

func (m *ProcessMemory) Query(addr uintptr) (Region, error) {
	var mbi windows.MemoryBasicInformation
	if err := windows.VirtualQueryEx(m.handle, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
		return Region{}, errors.Wrapf(err, "VirtualQueryEx 0x%X", addr)
	}
	return Region{
		Base:    mbi.BaseAddress,
		Size:    mbi.RegionSize,
		State:   mbi.State,
		Protect: mbi.Protect,
	}, nil
}

func (m *ProcessMemory) Read(addr, size uintptr) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	var n uintptr
	err := windows.ReadProcessMemory(m.handle, addr, &buf[0], size, &n)
	if err != nil && n == 0 {
		return nil, errors.Wrapf(err, "ReadProcessMemory 0x%X", addr)
	}
	return buf[:n], nil
}

func (m *ProcessMemory) Close() error {
	if !m.owned || m.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(m.handle)
	m.handle = 0
	return err
}
