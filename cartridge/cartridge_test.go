package cartridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nescore/gintendo/ppu"
)

// writeTestROM synthesizes a minimal iNES file: a 16-byte header
// followed by prgBlocks*16KiB of PRG and chrBlocks*8KiB of CHR, all
// zero-filled except for a marker byte at the start of each region so
// tests can confirm the right number of bytes landed in the right place.
func writeTestROM(t *testing.T, flags6, flags7 uint8, prgBlocks, chrBlocks int) string {
	t.Helper()

	header := []byte{'N', 'E', 'S', 0x1A, byte(prgBlocks), byte(chrBlocks), flags6, flags7, 0, 0, 0, 0, 0, 0, 0, 0}
	prg := make([]byte, prgBlockSize*prgBlocks)
	if len(prg) > 0 {
		prg[0] = 0xEA
	}
	chr := make([]byte, chrBlockSize*chrBlocks)
	if len(chr) > 0 {
		chr[0] = 0x7E
	}

	path := filepath.Join(t.TempDir(), "test.nes")
	data := append(append(header, prg...), chr...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing synthetic ROM: %v", err)
	}
	return path
}

func TestNewParsesPrgAndChr(t *testing.T) {
	path := writeTestROM(t, 0x00, 0x00, 2, 1)

	c, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(c.PRG) != prgBlockSize*2 {
		t.Errorf("len(PRG) = %d, want %d", len(c.PRG), prgBlockSize*2)
	}
	if len(c.CHR) != chrBlockSize {
		t.Errorf("len(CHR) = %d, want %d", len(c.CHR), chrBlockSize)
	}
	if c.PRG[0] != 0xEA || c.CHR[0] != 0x7E {
		t.Errorf("marker bytes did not land at the start of PRG/CHR")
	}
	if c.MapperNum != 0 {
		t.Errorf("MapperNum = %d, want 0", c.MapperNum)
	}
}

func TestNewMirroringModes(t *testing.T) {
	cases := []struct {
		flags6 uint8
		want   ppu.Mirroring
	}{
		{0x00, ppu.Horizontal},
		{0x01, ppu.Vertical},
	}

	for i, tc := range cases {
		path := writeTestROM(t, tc.flags6, 0x00, 1, 1)
		c, err := New(path)
		if err != nil {
			t.Fatalf("%d: New: %v", i, err)
		}
		if c.Mirroring != tc.want {
			t.Errorf("%d: Mirroring = %v, want %v", i, c.Mirroring, tc.want)
		}
	}
}

func TestNewRejectsFourScreenVRAM(t *testing.T) {
	path := writeTestROM(t, fourScreenBit, 0x00, 1, 1)
	if _, err := New(path); err == nil {
		t.Errorf("expected an error loading a four-screen VRAM ROM")
	}
}

func TestNewRejectsNonNROMMapper(t *testing.T) {
	path := writeTestROM(t, 0x10, 0x00, 1, 1) // mapper 1
	if _, err := New(path); err == nil {
		t.Errorf("expected an error loading a non-mapper-0 ROM")
	}
}

func TestNewZeroChrSizeMeansChrRAMBoard(t *testing.T) {
	path := writeTestROM(t, 0x00, 0x00, 1, 0)
	c, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(c.CHR) != 0 {
		t.Errorf("len(CHR) = %d, want 0", len(c.CHR))
	}
}
