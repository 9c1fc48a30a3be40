// Package mapper implements and registers mappers referenced
// numerically by iNES ROM headers. Only mapper 0 (NROM) is
// registered; the core doesn't emulate bank-switching hardware.
package mapper

import (
	"fmt"

	"github.com/nescore/gintendo/cartridge"
)

// Mapper is the PRG-ROM read/write surface the bus delegates $8000-
// $FFFF accesses to. $6000-$7FFF is not routed to a Mapper; the bus
// treats it as unmapped.
// CHR data never flows through a Mapper: NROM wires pattern tables
// straight from the cartridge into the PPU at startup.
type Mapper interface {
	PrgRead(addr uint16) uint8
	PrgWrite(addr uint16, val uint8)
}

type factory func(*cartridge.Cartridge) Mapper

var registry = map[uint8]factory{}

func register(id uint8, f factory) {
	if _, ok := registry[id]; ok {
		panic(fmt.Sprintf("mapper: id %d already registered", id))
	}
	registry[id] = f
}

// Get constructs the Mapper for c's mapper number, or an error if no
// mapper is registered for it.
func Get(c *cartridge.Cartridge) (Mapper, error) {
	f, ok := registry[c.MapperNum]
	if !ok {
		return nil, fmt.Errorf("mapper: no mapper registered for id %d", c.MapperNum)
	}
	return f(c), nil
}
