// Package ppu implements the NES Picture Processing Unit's
// memory-mapped register surface, VRAM/OAM/palette storage, and the
// scanline/dot clock that drives vertical blank and NMI signalling.
// Actual pixel compositing (the frame renderer) is outside this
// package; the host is expected to read sprite/palette state from a
// View after each completed frame.
package ppu

import "fmt"

const (
	vramSize    = 2048
	oamSize     = 256
	paletteSize = 32

	dotsPerScanline = 341
	lastScanline    = 261
)

// PPU is the NES Picture Processing Unit.
type PPU struct {
	chrROM    []byte
	vram      [vramSize]byte
	palette   [paletteSize]byte
	oam       [oamSize]byte
	oamAddr   uint8
	mirroring Mirroring

	ctrl   ctrlRegister
	mask   maskRegister
	status statusRegister
	scroll scrollRegister
	addr   vramAddr
	latch  bool // shared write-order latch for $2005/$2006

	internalDataBuf uint8

	cycle    int
	scanline int

	nmiPending *uint8
}

// New creates a PPU over chrROM (pattern data, up to 8 KiB) wired
// according to mirroring. A zero-length chrROM (CHR-RAM boards)
// is backed by a zero-filled 8 KiB buffer; pattern writes are ignored,
// so it stays zero.
func New(chrROM []byte, mirroring Mirroring) *PPU {
	if len(chrROM) == 0 {
		chrROM = make([]byte, 0x2000)
	}
	return &PPU{
		chrROM:    chrROM,
		mirroring: mirroring,
		scanline:  0,
	}
}

// WriteCtrl handles a $2000 write. A 0->1 transition of the NMI
// enable bit while already in vblank fires an immediate edge-triggered
// NMI, matching real hardware's "NMI can retrigger mid-vblank" quirk.
func (p *PPU) WriteCtrl(b uint8) {
	wasEnabled := p.ctrl.generateNMI()
	p.ctrl.set(b)
	if !wasEnabled && p.ctrl.generateNMI() && p.status.isVBlank() {
		p.setNMI()
	}
}

func (p *PPU) WriteMask(b uint8) {
	p.mask.set(b)
}

// ReadStatus handles a $2002 read: it clears the vblank flag and the
// shared write-order latch as side effects, whatever the prior value.
func (p *PPU) ReadStatus() uint8 {
	v := p.status.snapshot()
	p.status.setVBlank(false)
	p.latch = false
	return v
}

func (p *PPU) WriteOAMAddr(b uint8) {
	p.oamAddr = b
}

func (p *PPU) WriteOAMData(b uint8) {
	p.oam[p.oamAddr] = b
	p.oamAddr++
}

func (p *PPU) ReadOAMData() uint8 {
	return p.oam[p.oamAddr]
}

func (p *PPU) WriteScroll(b uint8) {
	if !p.latch {
		p.scroll.writeX(b)
	} else {
		p.scroll.writeY(b)
	}
	p.latch = !p.latch
}

func (p *PPU) WriteAddr(b uint8) {
	if !p.latch {
		p.addr.setHigh(b)
	} else {
		p.addr.setLow(b)
	}
	p.latch = !p.latch
}

// paletteIndex folds a raw $3F00-relative offset down to its 32-entry
// palette slot, aliasing the four sprite-backdrop mirrors onto their
// background counterparts.
func paletteIndex(offset uint8) uint8 {
	offset &= 0x1F
	switch offset {
	case 0x10, 0x14, 0x18, 0x1C:
		return offset - 0x10
	default:
		return offset
	}
}

// ReadData handles a $2007 read. The VRAM pointer always advances by
// the configured increment before the value is returned. Pattern and
// nametable reads are buffered one access behind; palette reads are
// not, though the buffer is still refilled from the nametable data
// that underlies the palette mirror.
func (p *PPU) ReadData() uint8 {
	ptr := p.addr.get()
	p.addr.increment(p.ctrl.vramIncrement())

	switch {
	case ptr < 0x2000:
		v := p.internalDataBuf
		p.internalDataBuf = p.chrROM[int(ptr)%len(p.chrROM)]
		return v
	case ptr < 0x3000:
		v := p.internalDataBuf
		p.internalDataBuf = p.vram[mirror(ptr, p.mirroring)]
		return v
	case ptr < 0x3F00:
		panic(fmt.Sprintf("ppu: read of forbidden mirror region 0x%04X", ptr))
	default:
		p.internalDataBuf = p.vram[mirror(ptr-0x1000, p.mirroring)]
		return p.palette[paletteIndex(uint8(ptr-0x3F00))]
	}
}

// WriteData handles a $2007 write.
func (p *PPU) WriteData(b uint8) {
	ptr := p.addr.get()
	p.addr.increment(p.ctrl.vramIncrement())

	switch {
	case ptr < 0x2000:
		// CHR is ROM on NROM; pattern writes are no-ops.
	case ptr < 0x3000:
		p.vram[mirror(ptr, p.mirroring)] = b
	case ptr < 0x3F00:
		panic(fmt.Sprintf("ppu: write to forbidden mirror region 0x%04X", ptr))
	default:
		p.palette[paletteIndex(uint8(ptr-0x3F00))] = b
	}
}

// OAMDMAIn appends 256 bytes to OAM starting at the current OAM
// address, wrapping modulo 256, as driven by the bus's $4014 handler.
func (p *PPU) OAMDMAIn(data [256]uint8) {
	for _, b := range data {
		p.oam[p.oamAddr] = b
		p.oamAddr++
	}
}

func (p *PPU) setNMI() {
	v := uint8(1)
	p.nmiPending = &v
}

// PollNMI atomically takes and clears a pending NMI signal.
func (p *PPU) PollNMI() (uint8, bool) {
	if p.nmiPending == nil {
		return 0, false
	}
	v := *p.nmiPending
	p.nmiPending = nil
	return v, true
}

// Tick advances the PPU by the given number of dots (341 per
// scanline) and reports whether a new frame was completed.
func (p *PPU) Tick(dots int) (frameComplete bool) {
	for i := 0; i < dots; i++ {
		if p.tick() {
			frameComplete = true
		}
	}
	return frameComplete
}

func (p *PPU) tick() bool {
	p.cycle++
	if p.cycle < dotsPerScanline {
		return false
	}
	p.cycle = 0
	p.scanline++

	switch {
	case p.scanline == 241:
		p.status.setVBlank(true)
		if p.ctrl.generateNMI() {
			p.setNMI()
		}
	case p.scanline == lastScanline:
		p.status.setVBlank(false)
		p.status.setSpriteZero(false)
		p.status.setOverflow(false)
	case p.scanline > lastScanline:
		p.scanline = 0
		return true
	}
	return false
}

// Scanline reports the current scanline (0-261), for diagnostics.
func (p *PPU) Scanline() int { return p.scanline }

// View is a read-only window onto PPU state, handed to the bus's
// frame-complete callback. It must not be retained past the
// callback's return.
type View struct {
	p *PPU
}

func (p *PPU) View() View { return View{p} }

func (v View) Palette() [paletteSize]uint8 { return v.p.palette }
func (v View) OAM() [oamSize]uint8         { return v.p.oam }
func (v View) Sprites() [64]Sprite         { return v.p.Sprites() }
func (v View) Mirroring() Mirroring        { return v.p.mirroring }
func (v View) Status() uint8               { return v.p.status.snapshot() }

// RenderingEnabled reports whether PPUMASK has background or sprite
// rendering turned on, so a host renderer can skip drawing when the
// game has blanked the screen (e.g. during a loading pause).
func (v View) RenderingEnabled() bool { return v.p.mask.renderingEnabled() }
