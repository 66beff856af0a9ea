// Package interests exposes the onboarding interest catalog.
package interests

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Interest is one selectable onboarding category.
type Interest struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Emoji string `yaml:"emoji" json:"emoji"`
}

type catalogFile struct {
	Interests []Interest `yaml:"interests"`
}

var (
	loadOnce sync.Once
	catalog  []Interest
	byID     map[string]Interest
	loadErr  error
)

func load() {
	var f catalogFile
	if err := yaml.Unmarshal(catalogYAML, &f); err != nil {
		loadErr = fmt.Errorf("parse interest catalog: %w", err)
		return
	}
	catalog = f.Interests
	byID = make(map[string]Interest, len(catalog))
	for _, in := range catalog {
		byID[in.ID] = in
	}
}

// All returns the catalog in display order.
func All() ([]Interest, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]Interest, len(catalog))
	copy(out, catalog)
	return out, nil
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Interest, bool) {
	loadOnce.Do(load)
	in, ok := byID[id]
	return in, ok
}
