// Package store reads and writes the JSON annotation store: an object that
// maps annotation keys to records with filename, size, regions and
// file_attributes.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/menta2k/region-augment/internal/utils"
	"github.com/menta2k/region-augment/pkg/types"
)

// File names used when the annotations location is a directory
const (
	DefaultInputName  = "annotations.json"
	DefaultOutputName = "new_annotations.json"
)

// ErrNotFound is returned when the annotation store does not exist
var ErrNotFound = errors.New("annotation store not found")

// ResolveAnnotationsPath accepts either a store file or a directory holding
// annotations.json.
func ResolveAnnotationsPath(path string) (string, error) {
	if utils.DirExists(path) {
		path = filepath.Join(path, DefaultInputName)
	}
	if !utils.FileExists(path) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return path, nil
}

// DefaultOutputPath places new_annotations.json next to the input store
func DefaultOutputPath(input string) string {
	return filepath.Join(filepath.Dir(input), DefaultOutputName)
}

// Load reads and validates a store. Records without regions get an empty
// region list; a malformed region fails the whole load.
func Load(path string) (types.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	var dataset types.Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if dataset == nil {
		dataset = types.Dataset{}
	}

	for key, record := range dataset {
		if record.Regions == nil {
			record.Regions = []types.Region{}
		}
		for i := range record.Regions {
			if record.Regions[i].RegionAttributes == nil {
				record.Regions[i].RegionAttributes = json.RawMessage("{}")
			}
		}
		if record.FileAttributes == nil {
			record.FileAttributes = json.RawMessage("{}")
		}
		dataset[key] = record
	}

	if err := dataset.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dataset, nil
}

// Save writes the dataset in one piece: it is encoded into a temporary file
// in the target directory which then replaces path.
func Save(path string, dataset types.Dataset) error {
	data, err := json.MarshalIndent(dataset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode annotations: %w", err)
	}

	dir := filepath.Dir(path)
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp", uuid.New()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write annotations: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write annotations: %w", err)
	}
	return nil
}
