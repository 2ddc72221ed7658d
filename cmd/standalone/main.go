//go:build !libretro

package main

import (
	"flag"
	"log"

	"github.com/user-none/eblitui/standalone"
	"github.com/user-none/emsx/adapter"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file (opens UI if not provided)")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	msx1 := flag.Bool("msx1", false, "emulate the V9918 instead of the V9938")
	unlimited := flag.Bool("unlimited-sprites", false, "draw every sprite on a line")
	softStandard := flag.Bool("soft-standard", false, "let register 9 switch between NTSC and PAL")
	flag.Parse()

	factory := &adapter.Factory{}

	if *romPath != "" {
		options := map[string]string{}
		if *msx1 {
			options["msx1_vdp"] = "true"
		}
		if *unlimited {
			options["unlimited_sprites"] = "true"
		}
		if *softStandard {
			options["soft_standard"] = "true"
		}
		if err := standalone.RunDirect(factory, *romPath, *regionFlag, options); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := standalone.Run(factory); err != nil {
		log.Fatal(err)
	}
}
