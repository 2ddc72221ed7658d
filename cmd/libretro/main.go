package main

import (
	libretro "github.com/user-none/eblitui/libretro"
	"github.com/user-none/emsx/adapter"
)

func init() {
	libretro.RegisterFactory(&adapter.Factory{}, []libretro.RetropadMapping{
		{RetroID: libretro.JoypadA, BitID: 4}, // Button 1
		{RetroID: libretro.JoypadB, BitID: 5}, // Button 2
		{RetroID: libretro.JoypadY, BitID: 4}, // Button 1 (alternate)
		{RetroID: libretro.JoypadX, BitID: 5}, // Button 2 (alternate)
	})
}

func main() {}
