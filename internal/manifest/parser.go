package manifest

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadDeploymentConfig reads and decodes a deployment configuration file.
// A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist).
// The raw bytes are returned alongside so callers can run schema validation.
func ReadDeploymentConfig(path string) (*DeploymentConfig, []byte, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, nil, err
	}

	var cfg DeploymentConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, data, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, data, nil
}

// ReadProjectConfig reads and decodes a dependency manifest file.
func ReadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// readFile reads the entire contents of a file.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
