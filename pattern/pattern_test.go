package pattern

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := Parse("6b 65 79 3D ?? ? 26")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Len())
	assert.True(t, p.HasWildcard())
	assert.Equal(t, "6B 65 79 3D ?? ?? 26", p.String())

	p, err = Parse("00,ff,10")
	require.NoError(t, err)
	assert.False(t, p.HasWildcard())
	assert.Equal(t, "00 FF 10", p.String())
}

func TestParseErrors(t *testing.T) {
	for _, text := range []string{"", "   ", "4", "414", "GG", "41 ZZ", "???"} {
		_, err := Parse(text)
		assert.Error(t, err, text)
	}
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
	assert.NotPanics(t, func() { MustParse("41") })
}

func TestIndexScenarios(t *testing.T) {
	p := MustParse("41 42 ?? 44")

	off, ok := p.Index([]byte{0x41, 0x42, 0xFF, 0x44})
	assert.True(t, ok)
	assert.Equal(t, 0, off)

	_, ok = p.Index([]byte{0x41, 0x42, 0xFF, 0x45})
	assert.False(t, ok)

	off, ok = p.Index([]byte{0x00, 0x41, 0x42, 0x99, 0x44})
	assert.True(t, ok)
	assert.Equal(t, 1, off)
}

func TestIndexEdges(t *testing.T) {
	p := MustParse("41 42")
	_, ok := p.Index(nil)
	assert.False(t, ok)
	_, ok = p.Index([]byte{0x41})
	assert.False(t, ok)

	off, ok := MustParse("??").Index([]byte{0x07})
	assert.True(t, ok)
	assert.Equal(t, 0, off)

	// trailing wildcard
	off, ok = MustParse("41 ??").Index([]byte{0x00, 0x41, 0x41, 0x00})
	assert.True(t, ok)
	assert.Equal(t, 1, off)

	_, ok = Pattern{}.Index([]byte{1, 2, 3})
	assert.False(t, ok)
}

func TestIndexFromAndAll(t *testing.T) {
	buf := []byte{0xAA, 0xAA, 0xAA, 0x00, 0xAA, 0xAA}
	p := MustParse("AA AA")

	off, ok := p.IndexFrom(buf, 2)
	assert.True(t, ok)
	assert.Equal(t, 4, off)

	assert.Equal(t, []int{0, 1, 4}, p.All(buf))
	assert.Empty(t, MustParse("BB").All(buf))
}

func TestExactPatternMatchesItself(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for n := 0; n < 500; n++ {
		sig := make([]byte, 1+rnd.Intn(32))
		rnd.Read(sig)
		off, ok := FromBytes(sig).Index(sig)
		require.True(t, ok)
		require.Equal(t, 0, off)
	}
}

func TestPlantedSignatureFound(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	for n := 0; n < 500; n++ {
		m := 2 + rnd.Intn(24)
		sig := make([]byte, m)
		exact := make([]bool, m)
		rnd.Read(sig)
		for i := range exact {
			exact[i] = rnd.Intn(4) != 0
		}
		p := build(sig, exact)

		buf := make([]byte, 64+rnd.Intn(4096))
		rnd.Read(buf)
		at := rnd.Intn(len(buf) - m + 1)
		for i := 0; i < m; i++ {
			if exact[i] {
				buf[at+i] = sig[i]
			} else {
				buf[at+i] = ^sig[i]
			}
		}

		off, ok := p.IndexFrom(buf, at)
		require.True(t, ok, "pattern %s", p)
		require.Equal(t, at, off, "pattern %s", p)

		want, _ := naive(buf, sig, exact)
		off, ok = p.Index(buf)
		require.True(t, ok, "pattern %s", p)
		require.Equal(t, want, off, "pattern %s", p)
	}
}

func TestAbsentSignatureNotFound(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for n := 0; n < 200; n++ {
		buf := make([]byte, 1+rnd.Intn(2048))
		for i := range buf {
			buf[i] = byte(rnd.Intn(0x80))
		}
		sig := make([]byte, 1+rnd.Intn(16))
		for i := range sig {
			sig[i] = byte(0x80 + rnd.Intn(0x80))
		}
		p := FromBytes(sig)
		for start := 0; start < len(buf); start += 1 + len(buf)/16 {
			_, ok := p.IndexFrom(buf, start)
			require.False(t, ok)
		}
	}
}

func TestIndexAgreesWithNaive(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	for n := 0; n < 2000; n++ {
		m := 1 + rnd.Intn(6)
		sig := make([]byte, m)
		exact := make([]bool, m)
		for i := range sig {
			sig[i] = byte(rnd.Intn(3))
			exact[i] = rnd.Intn(3) != 0
		}
		buf := make([]byte, rnd.Intn(64))
		for i := range buf {
			buf[i] = byte(rnd.Intn(3))
		}
		p := build(sig, exact)
		want, wantOK := naive(buf, sig, exact)
		got, gotOK := p.Index(buf)
		require.Equal(t, wantOK, gotOK, "pattern %s buf %x", p, buf)
		if wantOK {
			require.Equal(t, want, got, "pattern %s buf %x", p, buf)
		}
	}
}

func naive(buf, sig []byte, exact []bool) (int, bool) {
	for i := 0; i+len(sig) <= len(buf); i++ {
		j := 0
		for j < len(sig) && (!exact[j] || buf[i+j] == sig[j]) {
			j++
		}
		if j == len(sig) {
			return i, true
		}
	}
	return -1, false
}
