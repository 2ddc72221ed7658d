package ui

import (
	"sync"
	"time"

	"github.com/user-none/emsx/emu"
)

// MaxPlayers is the number of joypad ports.
const MaxPlayers = 2

// OptionChange is a core option update queued for the emulation goroutine.
type OptionChange struct {
	Key, Value string
}

// SharedInput carries controller state and option changes from the
// Ebiten thread to the emulation goroutine.
type SharedInput struct {
	mu      sync.Mutex
	buttons [MaxPlayers]uint32
	options []OptionChange
	reset   bool
}

// Set stores the button bitmask of a player. Out of range players are ignored.
func (si *SharedInput) Set(player int, buttons uint32) {
	if player < 0 || player >= MaxPlayers {
		return
	}
	si.mu.Lock()
	si.buttons[player] = buttons
	si.mu.Unlock()
}

// Read returns the button bitmask of a player.
func (si *SharedInput) Read(player int) uint32 {
	if player < 0 || player >= MaxPlayers {
		return 0
	}
	si.mu.Lock()
	defer si.mu.Unlock()
	return si.buttons[player]
}

// QueueOption records an option change to apply before the next frame.
func (si *SharedInput) QueueOption(key, value string) {
	si.mu.Lock()
	si.options = append(si.options, OptionChange{key, value})
	si.mu.Unlock()
}

// RequestReset asks for a machine reset before the next frame.
func (si *SharedInput) RequestReset() {
	si.mu.Lock()
	si.reset = true
	si.mu.Unlock()
}

// TakeChanges returns the queued option changes in order and whether a
// reset was requested, clearing both.
func (si *SharedInput) TakeChanges() (options []OptionChange, reset bool) {
	si.mu.Lock()
	options, si.options = si.options, nil
	reset, si.reset = si.reset, false
	si.mu.Unlock()
	return
}

// SharedFramebuffer holds pixel data written by the emulation goroutine
// and read by Ebiten's Draw(). Read hands out a snapshot so the writer is
// never blocked on drawing.
type SharedFramebuffer struct {
	mu           sync.Mutex
	writePixels  []byte
	readPixels   []byte
	stride       int
	activeHeight int
	frames       uint64
}

// NewSharedFramebuffer creates a framebuffer sized for the tallest output.
func NewSharedFramebuffer() *SharedFramebuffer {
	return &SharedFramebuffer{
		writePixels: make([]byte, emu.ScreenWidth*emu.MaxScreenHeight*4),
		readPixels:  make([]byte, emu.ScreenWidth*emu.MaxScreenHeight*4),
	}
}

// Update copies a finished frame from the emulation goroutine.
func (sf *SharedFramebuffer) Update(pixels []byte, stride, activeHeight int) {
	sf.mu.Lock()
	n := min(stride*activeHeight, len(sf.writePixels), len(pixels))
	copy(sf.writePixels[:n], pixels[:n])
	sf.stride = stride
	sf.activeHeight = activeHeight
	sf.frames++
	sf.mu.Unlock()
}

// Read returns a snapshot of the latest frame. The returned slice stays
// valid until the next Read.
func (sf *SharedFramebuffer) Read() (pixels []byte, stride, activeHeight int) {
	sf.mu.Lock()
	stride = sf.stride
	activeHeight = sf.activeHeight
	if n := min(stride*activeHeight, len(sf.writePixels)); n > 0 {
		copy(sf.readPixels[:n], sf.writePixels[:n])
	}
	pixels = sf.readPixels
	sf.mu.Unlock()
	return
}

// Frames returns the number of frames published so far.
func (sf *SharedFramebuffer) Frames() uint64 {
	sf.mu.Lock()
	defer sf.mu.Unlock()
	return sf.frames
}

// EmuControl coordinates pause, resume and stop between the Ebiten thread
// and the emulation goroutine.
type EmuControl struct {
	mu       sync.Mutex
	pauseReq bool
	paused   bool
	stopReq  bool
	ackCh    chan struct{}
	stopCh   chan struct{}
}

// NewEmuControl creates a running control.
func NewEmuControl() *EmuControl {
	return &EmuControl{
		ackCh:  make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// RequestPause asks the emulation goroutine to pause and blocks until it
// acknowledges or Stop is called.
func (ec *EmuControl) RequestPause() {
	ec.mu.Lock()
	if ec.paused || ec.pauseReq || ec.stopReq {
		ec.mu.Unlock()
		return
	}
	ec.pauseReq = true
	ec.mu.Unlock()

	select {
	case <-ec.ackCh:
	case <-ec.stopCh:
	}
}

// RequestResume lets a paused emulation goroutine continue.
func (ec *EmuControl) RequestResume() {
	ec.mu.Lock()
	ec.pauseReq = false
	ec.paused = false
	ec.mu.Unlock()
}

// CheckPause is called by the emulation goroutine between frames. It
// parks while a pause is requested and returns false once the goroutine
// should exit.
func (ec *EmuControl) CheckPause() bool {
	ec.mu.Lock()
	if ec.stopReq {
		ec.mu.Unlock()
		return false
	}
	if !ec.pauseReq {
		ec.mu.Unlock()
		return true
	}
	ec.paused = true
	ec.mu.Unlock()

	select {
	case ec.ackCh <- struct{}{}:
	default:
	}

	for {
		time.Sleep(10 * time.Millisecond)
		ec.mu.Lock()
		if ec.stopReq {
			ec.mu.Unlock()
			return false
		}
		if !ec.pauseReq {
			ec.paused = false
			ec.mu.Unlock()
			return true
		}
		ec.mu.Unlock()
	}
}

// Stop tells the emulation goroutine to exit, releasing any pause.
func (ec *EmuControl) Stop() {
	ec.mu.Lock()
	if !ec.stopReq {
		close(ec.stopCh)
	}
	ec.stopReq = true
	ec.pauseReq = false
	ec.mu.Unlock()
}

// ShouldRun reports whether Stop has not been called.
func (ec *EmuControl) ShouldRun() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return !ec.stopReq
}

// IsPaused reports whether the emulation goroutine is parked.
func (ec *EmuControl) IsPaused() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.paused
}
