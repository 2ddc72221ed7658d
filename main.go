//go:build !libretro

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	emubridge "github.com/user-none/emsx/bridge/ebiten"
	"github.com/user-none/emsx/cli"
	"github.com/user-none/emsx/emu"
	"github.com/user-none/emsx/romloader"
	"github.com/user-none/emsx/statsview"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	chipFlag := flag.String("chip", "v9938", "VDP chip: v9938 or v9918")
	debugFlag := flag.Int("debug", 0, "debug view (0-7)")
	spritesFlag := flag.Int("sprites", 0, "sprite debug mode (0-3)")
	hostRefresh := flag.String("host-refresh", "auto", "host refresh rate for pulldown: auto, 50 or 60")
	softStandard := flag.Bool("soft-standard", false, "let register 9 switch between NTSC and PAL")
	muted := flag.Bool("mute", false, "disable audio output")
	stats := flag.Bool("statsview", false, fmt.Sprintf("run the runtime statistics server (available: %v)", statsview.Available()))
	statsAddr := flag.String("statsview-addr", statsview.DefaultAddress, "address of the runtime statistics server")
	flag.Parse()

	if *romPath == "" {
		fmt.Println("Usage: emsx -rom <romfile> [-region auto|ntsc|pal] [-chip v9938|v9918] [-debug n] [-sprites n]")
		os.Exit(1)
	}

	if *stats {
		if !statsview.Available() {
			log.Fatal("statsview not available: rebuild with -tags statsview")
		}
		srv := statsview.Start(*statsAddr, os.Stdout)
		defer srv.Stop()
	}

	romData, _, err := romloader.LoadROM(*romPath)
	if err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}

	var region emu.Region
	switch strings.ToLower(*regionFlag) {
	case "auto":
		region, _ = emu.DetectRegionFromROM(romData)
	case "ntsc":
		region = emu.RegionNTSC
	case "pal":
		region = emu.RegionPAL
	default:
		log.Fatalf("Invalid region: %s (use auto, ntsc, or pal)", *regionFlag)
	}

	chip, ok := emu.ParseChip(*chipFlag)
	if !ok {
		log.Fatalf("Invalid chip: %s (use v9938 or v9918)", *chipFlag)
	}

	e, err := emubridge.NewEmulator(romData, region)
	if err != nil {
		log.Fatalf("Failed to initialize emulator: %v", err)
	}
	defer e.Close()

	e.SetOption("chip", *chipFlag)
	e.SetOption("host_refresh", *hostRefresh)
	e.SetOption("soft_standard", strconv.FormatBool(*softStandard))
	e.Reset()
	e.SetOption("debug_mode", strconv.Itoa(*debugFlag))
	e.SetOption("sprite_mode", strconv.Itoa(*spritesFlag))

	ebiten.SetWindowSize(emu.ScreenWidth*2, emu.MaxScreenHeight*2)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(348, 348, -1, -1) // Min 348x348, no max
	ebiten.SetTPS(60)

	runner := cli.NewRunner(e, cli.Settings{
		Chip:       chip,
		DebugMode:  *debugFlag,
		SpriteMode: *spritesFlag,
		Muted:      *muted,
	})
	defer runner.Close()

	if err := ebiten.RunGame(runner); err != nil {
		log.Fatal(err)
	}
}
