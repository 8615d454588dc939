package main

import (
	"encoding/json"
	"os"

	"github.com/herrausgefuchst/grainmother/pkg/engine"
)

// preset is the persisted control surface: normalized parameter values
// keyed by "effect.param", plus each stage's engage state.
type preset struct {
	Params  map[string]float64 `json:"params"`
	Engaged map[string]bool    `json:"engaged"`
}

type presetStore struct {
	path  string
	chain *engine.Chain
}

func newPresetStore(path string, chain *engine.Chain) *presetStore {
	return &presetStore{path: path, chain: chain}
}

func (s *presetStore) save() error {
	p := preset{
		Params:  make(map[string]float64),
		Engaged: make(map[string]bool),
	}
	for _, stage := range s.chain.Effects() {
		p.Engaged[stage.Name()] = stage.IsEngaged()
		for _, pr := range stage.Params().All() {
			p.Params[stage.Name()+"."+pr.ID()] = pr.Normalized()
		}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (s *presetStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var p preset
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	for _, stage := range s.chain.Effects() {
		if engaged, ok := p.Engaged[stage.Name()]; ok && !engaged {
			stage.Bypass()
		}
		for _, pr := range stage.Params().All() {
			if v, ok := p.Params[stage.Name()+"."+pr.ID()]; ok {
				pr.SetNormalized(v)
			}
		}
	}
	return nil
}
