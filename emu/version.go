package emu

// Core identification reported to frontends.
const (
	Name    = "emsx"
	Version = "0.1.0"
)
