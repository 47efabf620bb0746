package plan

import (
	"encoding/json"
	"fmt"
	"os"
)

// WriteFile persists a collection to path as a GeoJSON FeatureCollection.
func WriteFile(path string, c *Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write collection file: %w", err)
	}
	return nil
}

// ReadFile loads a collection previously written by WriteFile.
func ReadFile(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection file: %w", err)
	}
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode collection file %s: %w", path, err)
	}
	return &c, nil
}
