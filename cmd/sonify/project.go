package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cbegin/sonify-go"
)

// project is the on-disk form of a session: the composition plus the
// effect and control snapshots it is rendered with. Omitted sections keep
// their defaults.
type project struct {
	Duration    float64            `json:"duration"`
	Composition sonify.Composition `json:"composition"`
	Effects     sonify.Effects     `json:"effects"`
	Controls    sonify.Controls    `json:"controls"`
}

func loadProject(path string) (*project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	proj, err := decodeProject(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return proj, nil
}

func decodeProject(r io.Reader) (*project, error) {
	proj := &project{
		Duration: 10,
		Effects:  sonify.DefaultEffects(),
		Controls: sonify.DefaultControls(),
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(proj); err != nil {
		return nil, err
	}
	if proj.Duration <= 0 {
		return nil, sonify.ErrInvalidDuration
	}
	if err := proj.Composition.Normalize(); err != nil {
		return nil, err
	}
	return proj, nil
}
