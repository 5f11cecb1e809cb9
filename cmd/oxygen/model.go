package main

import (
	"errors"

	"oxygen/internal/transcribe"
)

// loadSpeechModel is the Loader passed to transcribe.New. No offline speech
// model binding ships in this module's dependency set (see DESIGN.md); a
// build wiring a real one replaces this function.
func loadSpeechModel() (transcribe.Model, error) {
	return nil, errors.New("no speech model backend is configured in this build")
}
