// Package seed loads the demo dataset into an empty store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/okian/dealdesk/internal/adapters/repository"
	"github.com/okian/dealdesk/pkg/logger"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var fixtures []byte

// ErrInvalidFixture is returned for fixture files that fail to parse or
// validate.
var ErrInvalidFixture = errors.New("invalid fixture")

// Parse decodes a YAML dataset and validates every record.
func Parse(data []byte) (repository.Dataset, error) {
	var ds repository.Dataset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return repository.Dataset{}, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	if err := validate(ds); err != nil {
		return repository.Dataset{}, err
	}
	return ds, nil
}

// Load reads the dataset at path, or the embedded one when path is empty.
func Load(path string) (repository.Dataset, error) {
	if path == "" {
		return Parse(fixtures)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return repository.Dataset{}, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	return Parse(data)
}

func validate(ds repository.Dataset) error {
	ids := map[string]map[int]bool{"contact": {}, "deal": {}, "rep": {}}
	check := func(kind string, id int, err error) error {
		if id <= 0 {
			return fmt.Errorf("%w: %s id %d must be positive", ErrInvalidFixture, kind, id)
		}
		if ids[kind][id] {
			return fmt.Errorf("%w: duplicate %s id %d", ErrInvalidFixture, kind, id)
		}
		ids[kind][id] = true
		if err != nil {
			return fmt.Errorf("%w: %s %d: %w", ErrInvalidFixture, kind, id, err)
		}
		return nil
	}
	for _, c := range ds.Contacts {
		if err := check("contact", c.ID, c.WithDefaults().Validate()); err != nil {
			return err
		}
	}
	for _, d := range ds.Deals {
		if err := check("deal", d.ID, d.WithDefaults().Validate()); err != nil {
			return err
		}
	}
	for _, r := range ds.Reps {
		if err := check("rep", r.ID, r.Validate()); err != nil {
			return err
		}
	}
	return nil
}

// Apply imports ds when the backend holds no records. It reports whether
// anything was written.
func Apply(ctx context.Context, b repository.Backend, ds repository.Dataset, log logger.Logger) (bool, error) {
	empty, err := b.Empty(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	if !empty {
		log.Info(ctx, "store already populated, skipping seed")
		return false, nil
	}
	if err := b.Import(ctx, ds); err != nil {
		return false, fmt.Errorf("seed: %w", err)
	}
	return true, nil
}
