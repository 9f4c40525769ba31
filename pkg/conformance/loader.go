package conformance

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadedCase is a single scenario together with the suite-level metadata
// (file path, target machine) needed to run it.
type LoadedCase struct {
	File    string
	Machine string
	Case    Case
}

// LoadDir walks dir for .yaml suite files and returns every case they
// contain, in a deterministic (filepath.Walk) order. A malformed suite file
// aborts the whole load: unlike barn's tolerant loader, these fixtures are
// committed by this repository, not borrowed from an external corpus, so a
// parse failure here is a bug worth failing loudly on.
func LoadDir(dir string) ([]LoadedCase, error) {
	var loaded []LoadedCase

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}
		cases, err := loadFile(path)
		if err != nil {
			return errors.Wrapf(err, "loading %s", path)
		}
		loaded = append(loaded, cases...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

func loadFile(path string) ([]LoadedCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading suite file")
	}

	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, errors.Wrap(err, "parsing suite YAML")
	}

	rel := filepath.Base(path)
	loaded := make([]LoadedCase, 0, len(suite.Cases))
	for _, c := range suite.Cases {
		loaded = append(loaded, LoadedCase{File: rel, Machine: suite.Machine, Case: c})
	}
	return loaded, nil
}
