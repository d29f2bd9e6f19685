//go:build windows

package win32

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	MEM_COMMIT  = 0x1000
	MEM_RESERVE = 0x2000
	MEM_RELEASE = 0x8000

	PAGE_READWRITE = 0x04
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procVirtualAllocEx     = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx      = kernel32.NewProc("VirtualFreeEx")
	procCreateRemoteThread = kernel32.NewProc("CreateRemoteThread")
	procGetExitCodeThread  = kernel32.NewProc("GetExitCodeThread")
)

func VirtualAllocEx(hProcess windows.Handle, lpAddress uintptr, dwSize uintptr, flAllocationType uint32, flProtect uint32) (addr uintptr, err error) {
	ret, _, err := procVirtualAllocEx.Call(
		uintptr(hProcess),
		lpAddress,
		dwSize,
		uintptr(flAllocationType),
		uintptr(flProtect),
	)
	if ret == 0 {
		return 0, err
	}
	return ret, nil
}

func VirtualFreeEx(hProcess windows.Handle, lpAddress uintptr, dwSize uintptr, dwFreeType uint32) error {
	ret, _, err := procVirtualFreeEx.Call(
		uintptr(hProcess),
		lpAddress,
		dwSize,
		uintptr(dwFreeType),
	)
	if ret == 0 {
		return err
	}
	return nil
}

func CreateRemoteThread(hProcess windows.Handle, sa *windows.SecurityAttributes, stackSize uint32, startAddress uintptr, parameter uintptr, creationFlags uint32) (windows.Handle, uint32, error) {
	var threadId uint32
	r1, _, err := procCreateRemoteThread.Call(
		uintptr(hProcess),
		uintptr(unsafe.Pointer(sa)),
		uintptr(stackSize),
		startAddress,
		parameter,
		uintptr(creationFlags),
		uintptr(unsafe.Pointer(&threadId)))
	if r1 == 0 {
		return 0, 0, err
	}
	return windows.Handle(r1), threadId, nil
}

func GetExitCodeThread(hThread windows.Handle) (uint32, error) {
	var code uint32
	r1, _, err := procGetExitCodeThread.Call(uintptr(hThread), uintptr(unsafe.Pointer(&code)))
	if r1 == 0 {
		return 0, err
	}
	return code, nil
}
