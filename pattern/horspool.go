package pattern

// buildShift fills the Horspool bad-character table. Only positions 0..m-2 take part,
// and a wildcard at w caps every shift at m-1-w since it matches any byte.
func (p *Pattern) buildShift() {
	m := len(p.bytes)
	last := -1
	for j := 0; j < m-1; j++ {
		if !p.exact[j] {
			last = j
		}
	}
	def := m
	if last >= 0 {
		def = m - 1 - last
	}
	shift := new([256]int)
	for i := range shift {
		shift[i] = def
	}
	for j := last + 1; j < m-1; j++ {
		shift[p.bytes[j]] = m - 1 - j
	}
	p.shift = shift
}

// Index returns the offset of the first match of p in buf.
// ok is false when there is no match; offset 0 is an ordinary hit.
func (p Pattern) Index(buf []byte) (offset int, ok bool) {
	return p.IndexFrom(buf, 0)
}

// IndexFrom is like Index but starts the search at buf[start:]. The returned
// offset is relative to buf.
func (p Pattern) IndexFrom(buf []byte, start int) (int, bool) {
	m := len(p.bytes)
	if m == 0 || start < 0 {
		return -1, false
	}
	for i := start; i+m <= len(buf); {
		j := m - 1
		for j >= 0 && (!p.exact[j] || buf[i+j] == p.bytes[j]) {
			j--
		}
		if j < 0 {
			return i, true
		}
		i += p.shift[buf[i+m-1]]
	}
	return -1, false
}

// All returns the offsets of every match of p in buf, overlapping ones included.
func (p Pattern) All(buf []byte) []int {
	var hits []int
	for i := 0; ; i++ {
		off, ok := p.IndexFrom(buf, i)
		if !ok {
			return hits
		}
		hits = append(hits, off)
		i = off
	}
}
