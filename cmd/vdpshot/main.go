// Command vdpshot runs a ROM headless for a number of frames and saves the
// last frame as a PNG, optionally with the audio of the whole run as WAV.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/user-none/emsx/emu"
	"github.com/user-none/emsx/romloader"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file (required)")
	regionFlag := flag.String("region", "ntsc", "region: ntsc or pal")
	chipFlag := flag.String("chip", "v9938", "VDP chip: v9938 or v9918")
	debugFlag := flag.Int("debug", 0, "debug view (0-7)")
	spritesFlag := flag.Int("sprites", 0, "sprite debug mode (0-3)")
	frames := flag.Int("frames", 120, "frames to run before the capture")
	out := flag.String("out", "frame.png", "PNG output path")
	scale := flag.Float64("scale", 1, "output scale factor")
	wavPath := flag.String("wav", "", "optional WAV output path for the run's audio")
	dump := flag.Bool("dump", false, "print the VDP registers and status after the run")
	flag.Parse()

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: vdpshot -rom <romfile> [-frames n] [-out frame.png] [-scale f] [-wav out.wav]")
		os.Exit(1)
	}
	if *frames < 1 || *scale <= 0 {
		log.Fatal("frames must be at least 1 and scale positive")
	}

	romData, name, err := romloader.LoadROM(*romPath)
	if err != nil {
		log.Fatalf("Failed to load ROM: %v", err)
	}

	var region emu.Region
	switch strings.ToLower(*regionFlag) {
	case "ntsc":
		region = emu.RegionNTSC
	case "pal":
		region = emu.RegionPAL
	default:
		log.Fatalf("Invalid region: %s (use ntsc or pal)", *regionFlag)
	}
	if _, ok := emu.ParseChip(*chipFlag); !ok {
		log.Fatalf("Invalid chip: %s (use v9938 or v9918)", *chipFlag)
	}

	e, err := emu.NewEmulator(romData, region)
	if err != nil {
		log.Fatalf("Failed to initialize emulator: %v", err)
	}
	defer e.Close()

	e.SetOption("chip", *chipFlag)
	e.SetOption("debug_mode", strconv.Itoa(*debugFlag))
	e.SetOption("sprite_mode", strconv.Itoa(*spritesFlag))

	var audioData []int16
	for i := 0; i < *frames; i++ {
		e.RunFrame()
		if *wavPath != "" {
			audioData = append(audioData, e.GetAudioSamples()...)
		}
	}

	img := frameImage(e.GetFramebuffer(), e.GetFramebufferStride(), emu.ScreenWidth, e.GetActiveHeight())
	if err := writePNG(*out, scaleImage(img, *scale)); err != nil {
		log.Fatal(err)
	}
	log.Printf("%s: %d frames, mode %s, wrote %s", name, *frames, e.VDP().ModeName(), *out)

	if *wavPath != "" {
		if err := writeWAV(*wavPath, audioData); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %d samples to %s", len(audioData)/2, *wavPath)
	}

	if *dump {
		dumpVDP(e.VDP())
	}
}

func dumpVDP(v *emu.VDP) {
	registers := make([]uint8, 47)
	for i := range registers {
		registers[i] = v.Register(i)
	}
	status := make([]uint8, 10)
	for i := range status {
		status[i] = v.Status(i)
	}
	cfg := spew.ConfigState{Indent: "  ", DisableMethods: true}
	fmt.Printf("chip %s, mode %s, frame %d, line %d\n", v.Chip(), v.ModeName(), v.Frame(), v.CurrentScanline())
	fmt.Print("registers ", cfg.Sdump(registers))
	fmt.Print("status ", cfg.Sdump(status))
}
