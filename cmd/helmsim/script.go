// cmd/helmsim/script.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-helm/pkg/entity"
)

// ScriptEntry is one scheduled operator action. Either Kind is set, or Clear
// drops every pending order.
type ScriptEntry struct {
	At          time.Duration     `yaml:"at"`
	Kind        *entity.OrderKind `yaml:"kind,omitempty"`
	Duration    time.Duration     `yaml:"duration,omitempty"`
	Preparation *time.Duration    `yaml:"preparation,omitempty"`
	Clear       bool              `yaml:"clear,omitempty"`
}

func (e ScriptEntry) String() string {
	if e.Clear {
		return fmt.Sprintf("clear at %v", e.At)
	}
	return fmt.Sprintf("%s at %v", e.Kind, e.At)
}

// LoadScript reads an order script from a YAML file
func LoadScript(path string) ([]ScriptEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	return ParseScript(f)
}

// ParseScript decodes a YAML list of entries and returns them ordered by time
func ParseScript(r io.Reader) ([]ScriptEntry, error) {
	var entries []ScriptEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}

	for i, e := range entries {
		switch {
		case e.At < 0:
			return nil, fmt.Errorf("entry %d: negative time %v", i, e.At)
		case e.Clear && e.Kind != nil:
			return nil, fmt.Errorf("entry %d: clear entries take no kind", i)
		case !e.Clear && e.Kind == nil:
			return nil, fmt.Errorf("entry %d: kind is required", i)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].At < entries[j].At
	})
	return entries, nil
}
