// Package symbols dumps the terminal's symbol list to a JSON catalogue.
package symbols

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"PatternScope/internal/model"
	"PatternScope/internal/terminal"
)

// DefaultFile is the catalogue file written by cmd/symbols.
const DefaultFile = "symbols_info.json"

var ErrNoSymbols = errors.New("no symbols found")

// Catalogue maps symbol names to their essential properties.
type Catalogue map[string]model.SymbolInfo

// Fetch reads every symbol the session exposes.
func Fetch(ctx context.Context, sess terminal.Session) (Catalogue, error) {
	list, err := sess.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrNoSymbols
	}
	cat := make(Catalogue, len(list))
	for _, s := range list {
		s.Visible = false // market watch state is not part of the catalogue
		cat[s.Name] = s
	}
	return cat, nil
}

// Names returns the symbol names in the catalogue in sorted order.
func (c Catalogue) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Load reads a catalogue from a JSON file. Returns an empty catalogue if the file doesn't exist.
func Load(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Catalogue{}, nil
		}
		return nil, fmt.Errorf("read catalogue: %w", err)
	}
	var cat Catalogue
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	return cat, nil
}

// Save writes the catalogue to a JSON file.
func Save(path string, cat Catalogue) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalogue dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(cat, "", "    ")
	if err != nil {
		return fmt.Errorf("encode catalogue: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
