package scanner

import "unicode/utf16"

// Extractor decodes a value from data, which starts at a pattern hit and runs to the
// end of the buffered region. It returns "" when nothing usable is there.
type Extractor func(data []byte) string

// Until skips skip bytes and collects printable ASCII up to the first terminator.
// Nothing is returned if no terminator shows up within max bytes or a
// non-printable byte comes first.
func Until(skip, max int, terminators ...byte) Extractor {
	skip, max = clampBounds(skip, max)
	return func(data []byte) string {
		if skip >= len(data) {
			return ""
		}
		data = data[skip:]
		if len(data) > max {
			data = data[:max]
		}
		for i, b := range data {
			if isTerminator(uint16(b), terminators) {
				return string(data[:i])
			}
			if b < 0x20 || b > 0x7E {
				return ""
			}
		}
		return ""
	}
}

// WideUntil is Until for UTF-16LE text. skip and max count bytes.
func WideUntil(skip, max int, terminators ...byte) Extractor {
	skip, max = clampBounds(skip, max)
	return func(data []byte) string {
		if skip >= len(data) {
			return ""
		}
		data = data[skip:]
		if len(data) > max {
			data = data[:max]
		}
		units := make([]uint16, 0, len(data)/2)
		for i := 0; i+1 < len(data); i += 2 {
			u := uint16(data[i]) | uint16(data[i+1])<<8
			if isTerminator(u, terminators) {
				return string(utf16.Decode(units))
			}
			if u < 0x20 || u == 0x7F || (u >= 0xD800 && u <= 0xDFFF) {
				return ""
			}
			units = append(units, u)
		}
		return ""
	}
}

// clampBounds treats negative offsets and lengths as zero.
func clampBounds(skip, max int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if max < 0 {
		max = 0
	}
	return skip, max
}

func isTerminator(u uint16, terminators []byte) bool {
	for _, t := range terminators {
		if u == uint16(t) {
			return true
		}
	}
	return false
}
