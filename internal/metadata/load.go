package metadata

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/roach88/docdal/internal/daoerr"
)

// ErrNoEntities is the cause of the error LoadRegistry returns for a
// directory without definitions.
var ErrNoEntities = errors.New("no entity definitions")

// LoadRegistry loads the CUE and YAML entity definitions found in dir and
// indexes them in a Registry.
func LoadRegistry(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("entities directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("entities directory: not a directory: %s", dir)
	}

	entities, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}

	yamlFiles, err := FindFiles(dir, ".yaml", ".yml")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(yamlFiles)
	for _, path := range yamlFiles {
		loaded, err := LoadYAML(path)
		if err != nil {
			return nil, err
		}
		entities = append(entities, loaded...)
	}

	if len(entities) == 0 {
		err := daoerr.UnresolvedEntityType("", "no definitions in "+dir)
		err.Err = ErrNoEntities
		return nil, err
	}
	return NewRegistry(entities...)
}
