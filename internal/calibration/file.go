package calibration

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// profileFile is the on-disk layout of a calibration file.
type profileFile struct {
	Profiles []*Profile `yaml:"profiles"`
}

// LoadFile reads calibration profiles from a YAML file.
func LoadFile(path string) ([]*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open calibration file: %w", err)
	}
	defer f.Close()

	profiles, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return profiles, nil
}

// Decode reads calibration profiles in YAML form. Coefficients left out of a
// profile take their default values. Every invalid profile is reported.
func Decode(r io.Reader) ([]*Profile, error) {
	var file profileFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode calibration yaml: %w", err)
	}

	var result *multierror.Error
	seen := make(map[string]bool, len(file.Profiles))
	for i, p := range file.Profiles {
		if p == nil || p.Version == "" {
			result = multierror.Append(result, fmt.Errorf("profile %d: version is required", i))
			continue
		}
		if seen[p.Version] {
			result = multierror.Append(result, fmt.Errorf("profile %d: duplicate version %q", i, p.Version))
			continue
		}
		seen[p.Version] = true

		p.Coefficients = p.Coefficients.WithDefaults()
		if err := p.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("profile %q: %w", p.Version, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return file.Profiles, nil
}
