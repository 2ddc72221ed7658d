package adapter

import (
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/emsx/emu"
)

// Compile-time interface check.
var _ emucore.CoreFactory = (*Factory)(nil)

// Factory implements emucore.CoreFactory for the MSX VDP test board.
type Factory struct{}

// SystemInfo returns system metadata for UI configuration.
func (f *Factory) SystemInfo() emucore.SystemInfo {
	return emucore.SystemInfo{
		Name:            "emsx",
		ConsoleName:     "MSX",
		Extensions:      []string{".rom", ".mx1", ".mx2"},
		ScreenWidth:     emu.ScreenWidth,
		MaxScreenHeight: emu.MaxScreenHeight,
		AspectRatio:     4.0 / 3.0,
		SampleRate:      48000,
		Buttons: []emucore.Button{
			{Name: "1", ID: 4, DefaultKey: "J", DefaultPad: "A"},
			{Name: "2", ID: 5, DefaultKey: "K", DefaultPad: "B"},
		},
		Players:       2,
		CoreOptions:   coreOptions(),
		RDBName:       "Microsoft - MSX2",
		ThumbnailRepo: "Microsoft_-_MSX2",
		DataDirName:   "emsx",
		ConsoleID:     29,
		CoreName:      emu.Name,
		CoreVersion:   emu.Version,
		SerializeSize: emu.SerializeSize(),
	}
}

func coreOptions() []emucore.CoreOption {
	return []emucore.CoreOption{
		{
			Key:         "msx1_vdp",
			Label:       "MSX1 VDP (V9918)",
			Description: "Emulate the MSX1 video chip instead of the V9938; applied on reset",
			Type:        emucore.CoreOptionBool,
			Default:     "false",
			Category:    emucore.CoreOptionCategoryVideo,
		},
		{
			Key:         "unlimited_sprites",
			Label:       "Unlimited Sprites",
			Description: "Draw every sprite on a line instead of the hardware limit",
			Type:        emucore.CoreOptionBool,
			Default:     "false",
			Category:    emucore.CoreOptionCategoryVideo,
		},
		{
			Key:         "no_sprite_collisions",
			Label:       "Disable Sprite Collisions",
			Description: "Never report sprite collisions to the program",
			Type:        emucore.CoreOptionBool,
			Default:     "false",
			Category:    emucore.CoreOptionCategoryVideo,
		},
		{
			Key:         "soft_standard",
			Label:       "Software Video Standard",
			Description: "Let programs switch between NTSC and PAL timing",
			Type:        emucore.CoreOptionBool,
			Default:     "false",
			Category:    emucore.CoreOptionCategoryVideo,
		},
	}
}

// CreateEmulator creates a new emulator instance with the given ROM and region.
func (f *Factory) CreateEmulator(rom []byte, region emucore.Region) (emucore.Emulator, error) {
	e, err := emu.NewEmulator(rom, region)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DetectRegion reports the default region. Cartridges carry no region
// marker, so the bool return is always false.
func (f *Factory) DetectRegion(rom []byte) (emucore.Region, bool) {
	return emu.DetectRegionFromROM(rom)
}
