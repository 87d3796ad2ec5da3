package loader

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/parkops/workplan/core/model"
)

// Reserved top-level keys in a resource-set YAML file; every other key names a
// role and its per-slot capacity.
var resourceKeys = map[string]struct{}{
	"slots_per_day":   {},
	"public_holidays": {},
	"custom_holidays": {},
}

// LoadResourcesYAML reads a resource-set YAML file. Role capacities are the
// top-level integer keys; slots_per_day defaults to 4 and public_holidays and
// custom_holidays are merged into one holiday set. An empty role list falls
// back to the default roster.
func LoadResourcesYAML(path string) (model.ResourceSet, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return model.ResourceSet{}, fmt.Errorf("read resources: %w", err)
	}

	capacity := make(map[string]int)
	for key := range k.Raw() {
		if _, reserved := resourceKeys[key]; reserved {
			continue
		}
		capacity[key] = k.Int(key)
	}
	holidays := append(k.Strings("public_holidays"), k.Strings("custom_holidays")...)
	return model.NewResourceSet(capacity, k.Int("slots_per_day"), holidays)
}
