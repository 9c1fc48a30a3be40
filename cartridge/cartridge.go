package cartridge

import (
	"fmt"
	"os"

	"github.com/nescore/gintendo/ppu"
)

const (
	trainerSize  = 512
	prgBlockSize = 16384
	chrBlockSize = 8192
)

// Cartridge is the parsed, in-memory contents of an iNES ROM image:
// PRG/CHR banks and the mirroring wiring the host hands to the PPU. This core only ever produces mapper-0 (NROM) cartridges; any
// other mapper number, or four-screen VRAM wiring, is a load-time
// error rather than something the machine can run degraded.
type Cartridge struct {
	PRG        []byte
	CHR        []byte
	Mirroring  ppu.Mirroring
	MapperNum  uint8
	HasBattery bool
}

// New reads and parses the iNES ROM at path.
func New(path string) (*Cartridge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cartridge: opening %q: %w", path, err)
	}
	defer f.Close()

	hbytes := make([]byte, 16)
	if n, err := f.Read(hbytes); n != 16 || err != nil {
		return nil, fmt.Errorf("cartridge: reading header of %q: %w", path, err)
	}

	h, err := parseHeader(hbytes)
	if err != nil {
		return nil, fmt.Errorf("cartridge: %q: %w", path, err)
	}

	if h.hasTrainer() {
		trainer := make([]byte, trainerSize)
		if n, err := f.Read(trainer); n != trainerSize || err != nil {
			return nil, fmt.Errorf("cartridge: reading trainer of %q: %w", path, err)
		}
	}

	c := &Cartridge{
		MapperNum:  h.mapperNum(),
		HasBattery: h.hasBatteryBackedRAM(),
	}
	if c.MapperNum != 0 {
		return nil, fmt.Errorf("cartridge: %q uses mapper %d, only mapper 0 (NROM) is supported", path, c.MapperNum)
	}

	if h.hasFourScreenVRAM() {
		return nil, fmt.Errorf("cartridge: %q requests four-screen VRAM, which NROM cannot wire", path)
	}
	if h.verticalMirroring() {
		c.Mirroring = ppu.Vertical
	} else {
		c.Mirroring = ppu.Horizontal
	}

	prgLen := prgBlockSize * int(h.prgSize)
	c.PRG = make([]byte, prgLen)
	if n, err := f.Read(c.PRG); n != prgLen || err != nil {
		return nil, fmt.Errorf("cartridge: reading PRG ROM of %q (read %d, wanted %d): %w", path, n, prgLen, err)
	}

	chrLen := chrBlockSize * int(h.chrSize)
	c.CHR = make([]byte, chrLen)
	if chrLen > 0 {
		if n, err := f.Read(c.CHR); n != chrLen || err != nil {
			return nil, fmt.Errorf("cartridge: reading CHR ROM of %q (read %d, wanted %d): %w", path, n, chrLen, err)
		}
	}

	return c, nil
}
