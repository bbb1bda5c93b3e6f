// Package mech reads and writes reaction mechanism files and assembles
// kinetics managers from them.
package mech

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTemperature = 300.0
	DefaultPressure    = 101325.0
)

type Mechanism struct {
	Name      string     `yaml:"name"`
	Phases    []Phase    `yaml:"phases"`
	Reactions []Reaction `yaml:"reactions"`
	Settings  Settings   `yaml:"settings"`
}

type Phase struct {
	Name    string    `yaml:"name"`
	Species []Species `yaml:"species"`
	State   State     `yaml:"state"`
}

type Species struct {
	Name string  `yaml:"name"`
	H298 float64 `yaml:"h298"`
	S298 float64 `yaml:"s298"`
	Cp   float64 `yaml:"cp"`
}

type State struct {
	T float64            `yaml:"T"`
	P float64            `yaml:"P"`
	X map[string]float64 `yaml:"X"`
}

type Reaction struct {
	Reactants  map[string]float64 `yaml:"reactants"`
	Products   map[string]float64 `yaml:"products"`
	Type       string             `yaml:"type"`
	Rate       map[string]any     `yaml:"rate"`
	Reversible bool               `yaml:"reversible"`
	Duplicate  bool               `yaml:"duplicate"`
	ThirdBody  *ThirdBody         `yaml:"third_body,omitempty"`
}

type ThirdBody struct {
	Collider     string             `yaml:"collider"`
	Default      *float64           `yaml:"default,omitempty"`
	Efficiencies map[string]float64 `yaml:"efficiencies,omitempty"`
}

type Settings struct {
	SkipUndeclaredSpecies     bool   `yaml:"skip_undeclared_species"`
	SkipUndeclaredThirdBodies bool   `yaml:"skip_undeclared_third_bodies"`
	ThirdBodyDuplicates       string `yaml:"third_body_duplicates,omitempty"`
}

func Load(path string) (*Mechanism, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Mechanism
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func Save(path string, m *Mechanism) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
