package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SequenceDef describes one sequencer. Steps name remote level steps.
type SequenceDef struct {
	Name                  string   `yaml:"name"`
	Condition             string   `yaml:"condition"`
	Necessary             []string `yaml:"necessary"`
	Steps                 []string `yaml:"steps"`
	BeforeStep            []string `yaml:"before_step"`
	AfterStep             []string `yaml:"after_step"`
	OnFail                string   `yaml:"on_fail"`
	IgnoreOtherConditions bool     `yaml:"ignore_other_conditions"`
	IgnoreSelfCondition   bool     `yaml:"ignore_self_condition"`
}

type sequencesFile struct {
	Sequences []SequenceDef `yaml:"sequences"`
}

// LoadSequences reads the definitions file. An empty path yields no sequences.
func LoadSequences(path string) ([]SequenceDef, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequences file: %w", err)
	}
	return ParseSequences(b)
}

func ParseSequences(b []byte) ([]SequenceDef, error) {
	var f sequencesFile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse sequences file: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Sequences))
	// A step id belongs to one sequence; two sequences would share its outcome channel.
	stepOwner := map[string]string{}
	for i, def := range f.Sequences {
		if strings.TrimSpace(def.Name) == "" {
			return nil, fmt.Errorf("sequence %d: name is required", i)
		}
		if strings.TrimSpace(def.Condition) == "" {
			return nil, fmt.Errorf("sequence %s: condition is required", def.Name)
		}
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("sequence %s: duplicate name", def.Name)
		}
		seen[def.Name] = struct{}{}
		if len(def.BeforeStep) > len(def.Steps) || len(def.AfterStep) > len(def.Steps) {
			return nil, fmt.Errorf("sequence %s: more dialogue entries than steps", def.Name)
		}
		for _, step := range def.Steps {
			if owner, ok := stepOwner[step]; ok && owner != def.Name {
				return nil, fmt.Errorf("sequence %s: step %q is already used by sequence %s", def.Name, step, owner)
			}
			stepOwner[step] = def.Name
		}
	}
	return f.Sequences, nil
}
