//go:build !libretro

// Package cli provides a command-line runner for the emulator.
// It handles input polling and runs the emulator in a window without the full UI.
package cli

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	emucore "github.com/user-none/eblitui/api"
	emubridge "github.com/user-none/emsx/bridge/ebiten"
	"github.com/user-none/emsx/emu"
	"github.com/user-none/emsx/ui"
)

// ADT buffer thresholds in bytes.
const (
	adtMinBuffer = 9600
	adtMaxBuffer = 19200
)

// Settings are the viewer state the hotkeys cycle through. They must match
// the options already applied to the emulator.
type Settings struct {
	Chip       emu.Chip
	DebugMode  int
	SpriteMode int
	Muted      bool
}

// Runner wraps an emulator for command-line mode.
// The emulator runs on a dedicated goroutine paced by the audio queue
// (ADT). The Ebiten thread polls input and draws the shared framebuffer.
//
// Hotkeys: F1 cycles the debug view, F2 the sprite debug mode, F3 switches
// between V9938 and V9918 (with a reset), F5 resets.
type Runner struct {
	emulator    *emubridge.Emulator
	audioPlayer *ui.AudioPlayer
	settings    Settings

	emuControl        *ui.EmuControl
	sharedInput       *ui.SharedInput
	sharedFramebuffer *ui.SharedFramebuffer
	emuDone           chan struct{}
}

// NewRunner creates a new Runner wrapping the given emulator and starts
// emulation. Audio initialization failure is non-fatal.
func NewRunner(e *emubridge.Emulator, settings Settings) *Runner {
	player, err := ui.NewAudioPlayer(settings.Muted)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
	}

	r := &Runner{
		emulator:          e,
		audioPlayer:       player,
		settings:          settings,
		emuControl:        ui.NewEmuControl(),
		sharedInput:       &ui.SharedInput{},
		sharedFramebuffer: ui.NewSharedFramebuffer(),
		emuDone:           make(chan struct{}),
	}
	r.updateTitle()

	go r.emulationLoop()

	return r
}

// Close stops emulation and releases audio.
func (r *Runner) Close() {
	if r.emuControl != nil {
		r.emuControl.Stop()
		<-r.emuDone
		r.emuControl = nil
	}

	if r.audioPlayer != nil {
		r.audioPlayer.Close()
		r.audioPlayer = nil
	}
}

// emulationLoop runs on a dedicated goroutine with ADT.
func (r *Runner) emulationLoop() {
	defer close(r.emuDone)

	lastFrameTime := time.Now()

	for {
		if !r.emuControl.CheckPause() {
			return
		}

		options, reset := r.sharedInput.TakeChanges()
		for _, o := range options {
			r.emulator.SetOption(o.Key, o.Value)
		}
		if reset {
			r.emulator.Reset()
		}

		for player := 0; player < ui.MaxPlayers; player++ {
			r.emulator.SetInput(player, r.sharedInput.Read(player))
		}

		r.emulator.RunFrame()

		if r.audioPlayer != nil {
			r.audioPlayer.QueueSamples(r.emulator.GetAudioSamples())
		}

		r.sharedFramebuffer.Update(
			r.emulator.GetFramebuffer(),
			r.emulator.GetFramebufferStride(),
			r.emulator.GetActiveHeight(),
		)

		// The rate can change at run time (soft standard switch)
		timing := r.emulator.GetTiming()
		frameTime := time.Duration(float64(time.Second) / float64(timing.FPS))
		sleepTime := frameTime - time.Since(lastFrameTime)

		if r.audioPlayer != nil {
			bufferLevel := r.audioPlayer.GetBufferLevel()
			if bufferLevel < adtMinBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 0.9)
			} else if bufferLevel > adtMaxBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 1.1)
			}
		}

		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}

		lastFrameTime = time.Now()
	}
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	if !ebiten.IsFocused() {
		return nil
	}

	r.pollHotkeys()
	r.pollInputToShared()
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	pixels, stride, height := r.sharedFramebuffer.Read()
	if height == 0 {
		return
	}
	r.emulator.DrawCachedFramebuffer(screen, pixels, stride, height)
}

// Layout implements ebiten.Game.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	return r.emulator.Layout(outsideWidth, outsideHeight)
}

func (r *Runner) pollHotkeys() {
	changed := false

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		r.settings.DebugMode = nextMode(r.settings.DebugMode, ebiten.IsKeyPressed(ebiten.KeyShift))
		r.sharedInput.QueueOption("debug_mode", strconv.Itoa(r.settings.DebugMode))
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		r.settings.SpriteMode = nextMode(r.settings.SpriteMode, ebiten.IsKeyPressed(ebiten.KeyShift))
		r.sharedInput.QueueOption("sprite_mode", strconv.Itoa(r.settings.SpriteMode))
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		if r.settings.Chip == emu.ChipV9938 {
			r.settings.Chip = emu.ChipV9918
		} else {
			r.settings.Chip = emu.ChipV9938
		}
		r.sharedInput.QueueOption("chip", r.settings.Chip.String())
		r.sharedInput.RequestReset()
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		r.sharedInput.RequestReset()
	}

	if changed {
		r.updateTitle()
	}
}

// nextMode steps a debug mode index. The emulator wraps the value, so
// only the displayed name needs normalizing.
func nextMode(mode int, backwards bool) int {
	if backwards {
		return mode - 1
	}
	return mode + 1
}

func (r *Runner) updateTitle() {
	ebiten.SetWindowTitle(windowTitle(r.settings))
}

func windowTitle(s Settings) string {
	return fmt.Sprintf("%s %s (%s) - debug: %s - sprites: %s",
		emu.Name, emu.Version, s.Chip,
		emu.DebugModeName(s.DebugMode), emu.SpriteDebugModeName(s.SpriteMode))
}

// pollInputToShared reads keyboard and gamepad input and writes to shared state.
// The keyboard drives player 1; each gamepad drives the player of its index.
func (r *Runner) pollInputToShared() {
	var buttons [ui.MaxPlayers]uint32

	// Keyboard (WASD + arrows for movement, J/Z and K/X for buttons)
	buttons[0] = keyboardButtons()

	for i, id := range ebiten.AppendGamepadIDs(nil) {
		if i >= ui.MaxPlayers {
			break
		}
		buttons[i] |= gamepadButtons(id)
	}

	for player, b := range buttons {
		r.sharedInput.Set(player, b)
	}
}

func keyboardButtons() uint32 {
	var b uint32
	pressed := func(keys ...ebiten.Key) bool {
		for _, k := range keys {
			if ebiten.IsKeyPressed(k) {
				return true
			}
		}
		return false
	}
	if pressed(ebiten.KeyW, ebiten.KeyArrowUp) {
		b |= 1 << emucore.ButtonUp
	}
	if pressed(ebiten.KeyS, ebiten.KeyArrowDown) {
		b |= 1 << emucore.ButtonDown
	}
	if pressed(ebiten.KeyA, ebiten.KeyArrowLeft) {
		b |= 1 << emucore.ButtonLeft
	}
	if pressed(ebiten.KeyD, ebiten.KeyArrowRight) {
		b |= 1 << emucore.ButtonRight
	}
	if pressed(ebiten.KeyJ, ebiten.KeyZ) {
		b |= 1 << 4
	}
	if pressed(ebiten.KeyK, ebiten.KeyX) {
		b |= 1 << 5
	}
	return b
}

func gamepadButtons(id ebiten.GamepadID) uint32 {
	if !ebiten.IsStandardGamepadLayoutAvailable(id) {
		return 0
	}

	var b uint32
	buttonMap := []struct {
		button ebiten.StandardGamepadButton
		bit    uint32
	}{
		{ebiten.StandardGamepadButtonLeftTop, 1 << emucore.ButtonUp},
		{ebiten.StandardGamepadButtonLeftBottom, 1 << emucore.ButtonDown},
		{ebiten.StandardGamepadButtonLeftLeft, 1 << emucore.ButtonLeft},
		{ebiten.StandardGamepadButtonLeftRight, 1 << emucore.ButtonRight},
		// Face buttons: A/Cross = Button 1, B/Circle = Button 2
		{ebiten.StandardGamepadButtonRightBottom, 1 << 4},
		{ebiten.StandardGamepadButtonRightRight, 1 << 5},
	}
	for _, m := range buttonMap {
		if ebiten.IsStandardGamepadButtonPressed(id, m.button) {
			b |= m.bit
		}
	}

	// Left analog stick (with deadzone)
	const deadzone = 0.5
	axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	if axisX < -deadzone {
		b |= 1 << emucore.ButtonLeft
	}
	if axisX > deadzone {
		b |= 1 << emucore.ButtonRight
	}
	if axisY < -deadzone {
		b |= 1 << emucore.ButtonUp
	}
	if axisY > deadzone {
		b |= 1 << emucore.ButtonDown
	}
	return b
}
