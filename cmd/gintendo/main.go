// Command gintendo runs an iNES ROM through the core bus/PPU/
// controller/CPU and displays it in an ebiten window.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/nescore/gintendo/cartridge"
	"github.com/nescore/gintendo/mapper"
)

var romFile = flag.String("nes_rom", "", "Path to the iNES ROM to run.")

func main() {
	flag.Parse()

	cart, err := cartridge.New(*romFile)
	if err != nil {
		log.Fatalf("invalid ROM: %v", err)
	}

	m, err := mapper.Get(cart)
	if err != nil {
		log.Fatalf("couldn't get mapper: %v", err)
	}

	g := newGame(m, cart)

	ebiten.SetWindowSize(screenWidth*2, screenHeight*2)
	ebiten.SetWindowTitle("gintendo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	ctx, cancel := context.WithCancel(context.Background())
	go g.run(ctx)

	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}

	cancel()
	os.Exit(0)
}
