// Package bus implements the NES system bus: RAM, address decoding
// across PPU registers/APU stubs/controller ports/PRG ROM, OAM DMA,
// and the cycle-to-dot clock that drives the PPU and delivers NMI.
package bus

import (
	"fmt"
	"log"

	"github.com/nescore/gintendo/mapper"
	"github.com/nescore/gintendo/ppu"
)

const ramSize = 0x0800

// FrameCallback is invoked once per completed PPU frame with a
// read-only view of the PPU and an exclusive, mutable view of the
// controller. Neither must be retained past the call.
type FrameCallback func(ppu.View, *Controller)

// Bus is the NES system bus.
type Bus struct {
	ram        [ramSize]uint8
	mapper     mapper.Mapper
	ppu        *ppu.PPU
	controller *Controller
	cycles     uint64
	frameCB    FrameCallback
}

// New creates a Bus wired to m (PRG access) and p (the owned PPU). cb
// may be nil, in which case completed frames are simply discarded.
func New(m mapper.Mapper, p *ppu.PPU, cb FrameCallback) *Bus {
	return &Bus{
		mapper:     m,
		ppu:        p,
		controller: &Controller{},
		frameCB:    cb,
	}
}

// Read implements the CPU-facing Memory capability.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr <= 0x1FFF:
		return b.ram[addr&0x07FF]
	case addr <= 0x3FFF:
		switch addr & 0x2007 {
		case 0x2002:
			return b.ppu.ReadStatus()
		case 0x2004:
			return b.ppu.ReadOAMData()
		case 0x2007:
			return b.ppu.ReadData()
		default:
			return 0 // PPUCTRL/PPUMASK/OAMADDR/PPUSCROLL/PPUADDR are write-only
		}
	case addr <= 0x4013 || addr == 0x4015:
		return 0 // APU stub
	case addr == 0x4014:
		return 0 // OAM DMA register is write-only
	case addr == 0x4016:
		return b.controller.Read()
	case addr == 0x4017:
		return 0 // second controller port, unimplemented
	case addr <= 0x7FFF:
		log.Printf("bus: read of unmapped address 0x%04X", addr)
		return 0
	default:
		return b.mapper.PrgRead(addr - 0x8000)
	}
}

// Write implements the CPU-facing Memory capability.
func (b *Bus) Write(addr uint16, val uint8) {
	switch {
	case addr <= 0x1FFF:
		b.ram[addr&0x07FF] = val
	case addr <= 0x3FFF:
		switch addr & 0x2007 {
		case 0x2000:
			b.ppu.WriteCtrl(val)
		case 0x2001:
			b.ppu.WriteMask(val)
		case 0x2002:
			panic(fmt.Sprintf("bus: write to PPUSTATUS at 0x%04X is invalid", addr))
		case 0x2003:
			b.ppu.WriteOAMAddr(val)
		case 0x2004:
			b.ppu.WriteOAMData(val)
		case 0x2005:
			b.ppu.WriteScroll(val)
		case 0x2006:
			b.ppu.WriteAddr(val)
		case 0x2007:
			b.ppu.WriteData(val)
		}
	case addr <= 0x4013 || addr == 0x4015:
		// APU stub, writes ignored
	case addr == 0x4014:
		b.oamDMA(val)
	case addr == 0x4016:
		b.controller.Write(val)
	case addr == 0x4017:
		// second controller port, unimplemented
	case addr <= 0x7FFF:
		log.Printf("bus: write of 0x%02X to unmapped address 0x%04X", val, addr)
	default:
		b.mapper.PrgWrite(addr-0x8000, val)
	}
}

// oamDMA services a $4014 write: 256 bytes are read from page<<8
// through the bus itself (so RAM mirrors and any future PPU-mapped
// sources behave uniformly) and handed to the PPU as one block. The
// CPU is charged 513 cycles, or 514 when DMA starts on an odd cycle,
// matching real hardware's extra alignment stall.
func (b *Bus) oamDMA(page uint8) {
	var data [256]uint8
	base := uint16(page) << 8
	for i := range data {
		data[i] = b.Read(base + uint16(i))
	}
	b.ppu.OAMDMAIn(data)

	cycles := 513
	if b.cycles%2 == 1 {
		cycles = 514
	}
	b.advance(cycles)
}

// Tick advances the bus by n CPU cycles: the PPU runs 3 dots per CPU
// cycle. If a frame boundary is crossed, the frame callback fires.
func (b *Bus) Tick(n uint8) {
	b.advance(int(n))
}

func (b *Bus) advance(cycles int) {
	b.cycles += uint64(cycles)
	if b.ppu.Tick(cycles * 3) {
		if b.frameCB != nil {
			b.frameCB(b.ppu.View(), b.controller)
		}
	}
}

// PollNMI atomically takes and clears a pending NMI signal from the
// PPU.
func (b *Bus) PollNMI() (uint8, bool) {
	return b.ppu.PollNMI()
}

// Controller returns the bus's owned controller, for host input
// wiring outside a frame callback (e.g. before the machine starts
// running).
func (b *Bus) Controller() *Controller {
	return b.controller
}
