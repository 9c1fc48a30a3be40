package main

import (
	"context"
	"image"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nescore/gintendo/bus"
	"github.com/nescore/gintendo/cartridge"
	"github.com/nescore/gintendo/cpu"
	"github.com/nescore/gintendo/mapper"
	"github.com/nescore/gintendo/ppu"
)

const (
	screenWidth  = 256
	screenHeight = 240
)

// keyBindings maps host keys to the NES controller's eight buttons.
// This is pure host-input plumbing; the controller package itself has
// no notion of ebiten or any other windowing toolkit.
var keyBindings = map[ebiten.Key]bus.Button{
	ebiten.KeyZ:         bus.ButtonA,
	ebiten.KeyX:         bus.ButtonB,
	ebiten.KeyBackspace: bus.ButtonSelect,
	ebiten.KeyEnter:     bus.ButtonStart,
	ebiten.KeyUp:        bus.ButtonUp,
	ebiten.KeyDown:      bus.ButtonDown,
	ebiten.KeyLeft:      bus.ButtonLeft,
	ebiten.KeyRight:     bus.ButtonRight,
}

// game implements ebiten.Game around the emulator core. The emulation
// itself runs on its own goroutine (run); ebiten drives Draw/Update/
// Layout on its own, so frame is guarded by mu to hand completed
// frames across that boundary without either side retaining the
// other's state past a call.
type game struct {
	cpu *cpu.CPU
	bus *bus.Bus

	mu    sync.Mutex
	frame *image.RGBA
}

func newGame(m mapper.Mapper, cart *cartridge.Cartridge) *game {
	g := &game{frame: image.NewRGBA(image.Rect(0, 0, screenWidth, screenHeight))}

	p := ppu.New(cart.CHR, cart.Mirroring)
	g.bus = bus.New(m, p, g.onFrame)
	g.cpu = cpu.New(g.bus)

	return g
}

// run drives the CPU/bus/PPU loop until ctx is cancelled: step the
// CPU, advance the bus (and, through it, the PPU) by the instruction's
// cycle cost, then service any NMI the PPU raised crossing into
// vblank. This ordering is the contract spec.md §5 requires: an NMI
// set during Tick is observed before the next instruction fetch.
func (g *game) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cycles := g.cpu.Step()
		g.bus.Tick(cycles)
		if _, ok := g.bus.PollNMI(); ok {
			g.cpu.TriggerNMI()
		}
	}
}

// onFrame is the bus's frame-complete callback. It renders a
// simplified view of the PPU's state — backdrop color plus sprite
// bounding boxes — into an RGBA buffer Draw can blit. A faithful
// tile/background compositor is the frame renderer spec.md §1 names
// as an out-of-scope external collaborator; this exists only so the
// emulator is visibly alive when run.
func (g *game) onFrame(v ppu.View, c *bus.Controller) {
	pal := v.Palette()
	backdrop := nesPalette[pal[0]&0x3F]

	img := image.NewRGBA(image.Rect(0, 0, screenWidth, screenHeight))
	for y := 0; y < screenHeight; y++ {
		for x := 0; x < screenWidth; x++ {
			img.Set(x, y, backdrop)
		}
	}

	if !v.RenderingEnabled() {
		g.mu.Lock()
		g.frame = img
		g.mu.Unlock()
		return
	}

	for _, s := range v.Sprites() {
		if s.Y >= screenHeight {
			continue
		}
		paletteBase := 0x11 + s.Palette*4
		clr := nesPalette[pal[paletteBase&0x1F]&0x3F]
		for dy := 0; dy < 8; dy++ {
			for dx := 0; dx < 8; dx++ {
				px, py := int(s.X)+dx, int(s.Y)+dy
				if px < screenWidth && py < screenHeight {
					img.Set(px, py, clr)
				}
			}
		}
	}

	g.mu.Lock()
	g.frame = img
	g.mu.Unlock()
}

func (g *game) Update() error {
	for key, btn := range keyBindings {
		g.bus.Controller().Set(btn, ebiten.IsKeyPressed(key))
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	frame := g.frame
	g.mu.Unlock()
	screen.WritePixels(frame.Pix)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// nesPalette is the canonical 64-entry 2C02 NTSC color table, indexed
// by a 6-bit palette byte ($00-$3F).
var nesPalette = [64]color.RGBA{
	{0x7C, 0x7C, 0x7C, 0xFF}, {0x00, 0x00, 0xFC, 0xFF}, {0x00, 0x00, 0xBC, 0xFF}, {0x44, 0x28, 0xBC, 0xFF},
	{0x94, 0x00, 0x84, 0xFF}, {0xA8, 0x00, 0x20, 0xFF}, {0xA8, 0x10, 0x00, 0xFF}, {0x88, 0x14, 0x00, 0xFF},
	{0x50, 0x30, 0x00, 0xFF}, {0x00, 0x78, 0x00, 0xFF}, {0x00, 0x68, 0x00, 0xFF}, {0x00, 0x58, 0x00, 0xFF},
	{0x00, 0x40, 0x58, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0xBC, 0xBC, 0xBC, 0xFF}, {0x00, 0x78, 0xF8, 0xFF}, {0x00, 0x58, 0xF8, 0xFF}, {0x68, 0x44, 0xFC, 0xFF},
	{0xD8, 0x00, 0xCC, 0xFF}, {0xE4, 0x00, 0x58, 0xFF}, {0xF8, 0x38, 0x00, 0xFF}, {0xE4, 0x5C, 0x10, 0xFF},
	{0xAC, 0x7C, 0x00, 0xFF}, {0x00, 0xB8, 0x00, 0xFF}, {0x00, 0xA8, 0x00, 0xFF}, {0x00, 0xA8, 0x44, 0xFF},
	{0x00, 0x88, 0x88, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0xF8, 0xF8, 0xF8, 0xFF}, {0x3C, 0xBC, 0xFC, 0xFF}, {0x68, 0x88, 0xFC, 0xFF}, {0x98, 0x78, 0xF8, 0xFF},
	{0xF8, 0x78, 0xF8, 0xFF}, {0xF8, 0x58, 0x98, 0xFF}, {0xF8, 0x78, 0x58, 0xFF}, {0xFC, 0xA0, 0x44, 0xFF},
	{0xF8, 0xB8, 0x00, 0xFF}, {0xB8, 0xF8, 0x18, 0xFF}, {0x58, 0xD8, 0x54, 0xFF}, {0x58, 0xF8, 0x98, 0xFF},
	{0x00, 0xE8, 0xD8, 0xFF}, {0x78, 0x78, 0x78, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
	{0xFC, 0xFC, 0xFC, 0xFF}, {0xA4, 0xE4, 0xFC, 0xFF}, {0xB8, 0xB8, 0xF8, 0xFF}, {0xD8, 0xB8, 0xF8, 0xFF},
	{0xF8, 0xB8, 0xF8, 0xFF}, {0xF8, 0xA4, 0xC0, 0xFF}, {0xF0, 0xD0, 0xB0, 0xFF}, {0xFC, 0xE0, 0xA8, 0xFF},
	{0xF8, 0xD8, 0x78, 0xFF}, {0xD8, 0xF8, 0x78, 0xFF}, {0xB8, 0xF8, 0xB8, 0xFF}, {0xB8, 0xF8, 0xD8, 0xFF},
	{0x00, 0xFC, 0xFC, 0xFF}, {0xF8, 0xD8, 0xF8, 0xFF}, {0x00, 0x00, 0x00, 0xFF}, {0x00, 0x00, 0x00, 0xFF},
}
