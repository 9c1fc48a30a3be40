package bus

import (
	"testing"

	"github.com/nescore/gintendo/cartridge"
	"github.com/nescore/gintendo/mapper"
	"github.com/nescore/gintendo/ppu"
)

func newTestBus(t *testing.T, cb FrameCallback) *Bus {
	t.Helper()
	return New(mapper.NewDummy(), ppu.New(make([]byte, 0x2000), ppu.Horizontal), cb)
}

func TestRAMMirroring(t *testing.T) {
	b := newTestBus(t, nil)

	for i := 0; i < 10; i++ {
		b.Write(uint16(i), uint8(i+1))
	}

	for _, base := range []uint16{0x0000, 0x0800, 0x1000, 0x1800} {
		for i := 0; i < 10; i++ {
			if got := b.Read(base + uint16(i)); got != uint8(i+1) {
				t.Errorf("mem[0x%04X] = 0x%02X, want 0x%02X", base+uint16(i), got, i+1)
			}
		}
	}
}

func TestPPURegisterReadsAreWriteOnlyStub(t *testing.T) {
	b := newTestBus(t, nil)

	for _, addr := range []uint16{0x2000, 0x2001, 0x2003, 0x2005, 0x2006} {
		if got := b.Read(addr); got != 0 {
			t.Errorf("Read(0x%04X) = 0x%02X, want 0", addr, got)
		}
	}
}

func TestWriteToPPUStatusPanics(t *testing.T) {
	b := newTestBus(t, nil)
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic writing to 0x2002")
		}
	}()
	b.Write(0x2002, 0xFF)
}

func TestWriteToPRGROMPanics(t *testing.T) {
	// The Dummy mapper is writable, so this test wires a real NROM board.
	m, err := mapper.Get(&cartridge.Cartridge{PRG: make([]byte, 0x4000)})
	if err != nil {
		t.Fatalf("mapper.Get: %v", err)
	}
	b := New(m, ppu.New(make([]byte, 0x2000), ppu.Horizontal), nil)
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic writing PRG ROM")
		}
	}()
	b.Write(0x8000, 0xFF)
}

func TestPPURegisterMirror(t *testing.T) {
	b := newTestBus(t, nil)

	// 0x3806 & 0x2007 == 0x2006, so writes there reach PPUADDR exactly
	// like 0x2006 does (registers mirror every 8 bytes up through 0x3FFF).
	b.Write(0x3806, 0x20)
	b.Write(0x3806, 0x00)
	b.Write(0x3807, 0x42) // 0x3807 & 0x2007 == 0x2007, PPUDATA

	b.Write(0x2006, 0x20)
	b.Write(0x2006, 0x00)
	b.Read(0x2007) // discard buffered byte
	if got := b.Read(0x2007); got != 0x42 {
		t.Errorf("value written via mirrored register address = 0x%02X, want 0x42", got)
	}
}

func TestOAMDMACopiesThroughBus(t *testing.T) {
	b := newTestBus(t, nil)

	for i := 0; i < 256; i++ {
		b.Write(uint16(i), uint8(i))
	}

	b.Write(0x4014, 0x00) // page 0 -> CPU addresses 0x0000-0x00FF

	if got := b.ppu.ReadOAMData(); got != 0 {
		// ReadOAMData reads at the current oamAddr (wrapped to 0 after 256 writes)
		t.Errorf("oam[0] after DMA = 0x%02X, want 0x00", got)
	}
}

func TestOAMDMAChargesCycles(t *testing.T) {
	b := newTestBus(t, nil)
	b.cycles = 1 // odd

	before := b.cycles
	b.Write(0x4014, 0x00)
	if got := b.cycles - before; got != 514 {
		t.Errorf("DMA on odd cycle charged %d cycles, want 514", got)
	}
}

func TestControllerRoundTrip(t *testing.T) {
	b := newTestBus(t, nil)
	b.Controller().Set(ButtonA, true)
	b.Controller().Set(ButtonStart, true)

	b.Write(0x4016, 0x01) // strobe high
	if got := b.Read(0x4016); got != 1 {
		t.Errorf("strobed read = %d, want 1 (A pressed)", got)
	}
	b.Write(0x4016, 0x00) // strobe low, begin shifting

	want := []uint8{1, 0, 0, 1, 0, 0, 0, 0}
	for i, w := range want {
		if got := b.Read(0x4016); got != w {
			t.Errorf("bit %d = %d, want %d", i, got, w)
		}
	}
}

func TestTickInvokesFrameCallbackOnFrameBoundary(t *testing.T) {
	calls := 0
	b := newTestBus(t, func(v ppu.View, c *Controller) {
		calls++
	})

	// 341 dots/scanline * 262 scanlines, 3 dots/cycle.
	cyclesPerFrame := (341 * 262) / 3
	for i := 0; i < cyclesPerFrame+1; i++ {
		b.Tick(1)
	}

	if calls == 0 {
		t.Errorf("expected the frame callback to fire at least once")
	}
}

func TestPollNMIDelegatesToPPU(t *testing.T) {
	b := newTestBus(t, nil)
	b.Write(0x2000, 0x80) // enable NMI generation

	// Drive the PPU to scanline 241 to trigger vblank+NMI.
	cyclesToVBlank := (341 * 242) / 3
	for i := 0; i < cyclesToVBlank+1; i++ {
		b.Tick(1)
	}

	if _, ok := b.PollNMI(); !ok {
		t.Errorf("expected NMI to be pending after reaching vblank")
	}
	if _, ok := b.PollNMI(); ok {
		t.Errorf("PollNMI should clear the pending signal")
	}
}

func TestPRGROMReadThroughMapper(t *testing.T) {
	m := mapper.NewDummy()
	m.PrgWrite(0, 0x99)
	b := New(m, ppu.New(make([]byte, 0x2000), ppu.Horizontal), nil)

	if got := b.Read(0x8000); got != 0x99 {
		t.Errorf("Read(0x8000) = 0x%02X, want 0x99", got)
	}
}
