package mapper

import (
	"fmt"

	"github.com/nescore/gintendo/cartridge"
)

func init() {
	register(0, newNROM)
}

// nrom implements mapper 0: a fixed 16 or 32 KiB PRG bank with no
// bank-switching registers. A 16 KiB cartridge is mirrored across
// both PRG windows ($8000-$BFFF and $C000-$FFFF read the same bytes).
type nrom struct {
	prg []byte
}

func newNROM(c *cartridge.Cartridge) Mapper {
	return &nrom{prg: c.PRG}
}

func (m *nrom) PrgRead(addr uint16) uint8 {
	return m.prg[int(addr)%len(m.prg)]
}

func (m *nrom) PrgWrite(addr uint16, val uint8) {
	panic(fmt.Sprintf("mapper: write to PRG ROM at 0x%04X (NROM has no bank-switching registers)", addr))
}
