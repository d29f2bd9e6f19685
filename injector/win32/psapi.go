//go:build windows

package win32

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const LIST_MODULES_ALL = 0x03

// EnumProcessModules fills modules and returns how many the process has, which may
// exceed len(modules).
func EnumProcessModules(process windows.Handle, modules []windows.Handle) (n int, err error) {
	var needed uint32
	const handleSize = unsafe.Sizeof(windows.Handle(0))
	err = windows.EnumProcessModulesEx(process, &modules[0], uint32(handleSize*uintptr(len(modules))), &needed, LIST_MODULES_ALL)
	if err != nil {
		return 0, err
	}
	return int(uintptr(needed) / handleSize), nil
}

func GetModuleFileNameEx(process windows.Handle, module windows.Handle) (string, error) {
	buf := make([]uint16, 1024)
	if err := windows.GetModuleFileNameEx(process, module, &buf[0], uint32(len(buf))); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf), nil
}
