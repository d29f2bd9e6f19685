package scanner

import "fmt"

const (
	MEM_COMMIT  = 0x1000
	MEM_RESERVE = 0x2000
	MEM_FREE    = 0x10000

	PAGE_NOACCESS  = 0x01
	PAGE_READONLY  = 0x02
	PAGE_READWRITE = 0x04
	PAGE_GUARD     = 0x100
)

// Region describes one contiguous range of a process's address space.
type Region struct {
	Base    uintptr
	Size    uintptr
	State   uint32
	Protect uint32
}

// Scannable reports whether the region is committed and may be read without faulting.
func (r Region) Scannable() bool {
	return r.State == MEM_COMMIT && r.Protect&(PAGE_NOACCESS|PAGE_GUARD) == 0
}

func (r Region) String() string {
	return fmt.Sprintf("0x%X+0x%X state=0x%X protect=0x%X", r.Base, r.Size, r.State, r.Protect)
}

// Memory is a read-only view over another process's virtual memory.
type Memory interface {
	// Query describes the region containing addr. It fails past the end of the address space.
	Query(addr uintptr) (Region, error)
	// Read copies up to size bytes at addr. A short read returns the bytes copied so far.
	Read(addr, size uintptr) ([]byte, error)
}

// Regions walks the address space from 0, calling fn for every region reported by mem.
// The walk ends when Query fails, the cursor stops advancing or fn returns false.
func Regions(mem Memory, fn func(Region) bool) error {
	var addr uintptr
	for {
		r, err := mem.Query(addr)
		if err != nil {
			if addr == 0 {
				return err
			}
			return nil
		}
		if !fn(r) {
			return nil
		}
		next := r.Base + r.Size
		if next <= addr {
			return nil
		}
		addr = next
	}
}
