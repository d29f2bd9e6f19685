// Package scanner searches another process's memory for wildcard byte signatures.
package scanner

import (
	"fmt"

	"github.com/Moonlight-Companies/gologger/logger"

	"github.com/Mrs4s/go-x86-injector/pattern"
)

// Scanner sweeps every scannable region of a Memory on each call. Nothing is cached
// between calls, the target's layout may change at any time.
type Scanner struct {
	mem Memory
	log *logger.Logger
}

type Option func(*Scanner)

func WithLogger(l *logger.Logger) Option {
	return func(s *Scanner) {
		s.log = l
	}
}

func New(mem Memory, opts ...Option) *Scanner {
	s := &Scanner{mem: mem}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewLogger("scan")
	}
	return s
}

// SearchProcessMemory returns the first non-empty string extract produces at a hit of
// any of patterns, or "" when nothing was found.
func SearchProcessMemory(mem Memory, patterns []pattern.Pattern, extract Extractor) string {
	return New(mem).Search(patterns, extract)
}

// Search tries the patterns in the order given, the first being the preferred variant.
// Each pattern gets its own sweep over every region, and every hit is offered to extract.
func (s *Scanner) Search(patterns []pattern.Pattern, extract Extractor) string {
	for _, p := range patterns {
		var result string
		scanned := 0
		err := s.each(func(r Region, data []byte) bool {
			scanned++
			for _, off := range p.All(data) {
				if v := extract(data[off:]); v != "" {
					s.log.Debugln("extracted value at", fmt.Sprintf("0x%X", r.Base+uintptr(off)), "pattern", p.String())
					result = v
					return false
				}
			}
			return true
		})
		if err != nil {
			s.log.Warn("memory query failed: ", err)
			return ""
		}
		if result != "" {
			return result
		}
		s.log.Debugln("no match for", p.String(), "in", scanned, "regions")
	}
	return ""
}

// Locate returns the absolute address of the first hit of p.
func (s *Scanner) Locate(p pattern.Pattern) (uintptr, bool) {
	var addr uintptr
	found := false
	err := s.each(func(r Region, data []byte) bool {
		if off, ok := p.Index(data); ok {
			addr, found = r.Base+uintptr(off), true
			return false
		}
		return true
	})
	if err != nil {
		s.log.Warn("memory query failed: ", err)
	}
	return addr, found
}

// each reads every scannable region and hands its bytes to fn until fn returns false.
func (s *Scanner) each(fn func(Region, []byte) bool) error {
	return Regions(s.mem, func(r Region) bool {
		if !r.Scannable() || r.Size == 0 {
			return true
		}
		data, err := s.mem.Read(r.Base, r.Size)
		if err != nil {
			s.log.Debugln("skipping region", r.String(), err)
			return true
		}
		if len(data) == 0 {
			return true
		}
		return fn(r, data)
	})
}
