package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/trebuchet-org/deltasim/internal/domain"
	"gopkg.in/yaml.v3"
)

const defaultLocalRPCURL = "http://127.0.0.1:8545"

// networksFile is the on-disk shape of a networks file, in TOML or YAML
type networksFile struct {
	Networks []domain.NetworkConfig `toml:"networks" yaml:"networks"`
}

// LoadEnvFiles loads .env and .env.local from dir. Variables already set
// in the environment win.
func LoadEnvFiles(dir string) {
	envFiles := []string{
		filepath.Join(dir, ".env"),
		filepath.Join(dir, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				// Log warning but don't fail
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}

// DefaultNetworks returns the built-in networks with upstream URLs taken
// from LOCALHOST_RPC_URL and SEPOLIA_RPC_URL
func DefaultNetworks() []domain.NetworkConfig {
	localURL := os.Getenv("LOCALHOST_RPC_URL")
	if localURL == "" {
		localURL = defaultLocalRPCURL
	}

	return []domain.NetworkConfig{
		{
			ID:      "localhost",
			ChainID: 31337,
			RPCURL:  localURL,
			Label:   "Local Hardhat",
		},
		{
			ID:      "sepolia",
			ChainID: 11155111,
			RPCURL:  os.Getenv("SEPOLIA_RPC_URL"),
			Label:   "Sepolia Testnet",
		},
	}
}

// LoadNetworksFile reads a network list from a .toml, .yaml or .yml file.
// ${VAR} references in rpc_url are expanded from the environment.
func LoadNetworksFile(path string) ([]domain.NetworkConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read networks file: %w", err)
	}

	var file networksFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported networks file extension %q: use .toml, .yaml or .yml", ext)
	}

	if len(file.Networks) == 0 {
		return nil, fmt.Errorf("no networks defined in %s", path)
	}

	seen := make(map[string]bool, len(file.Networks))
	for i := range file.Networks {
		n := &file.Networks[i]
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" {
			return nil, fmt.Errorf("network #%d in %s has no id", i+1, path)
		}
		if seen[n.ID] {
			return nil, fmt.Errorf("duplicate network id %q in %s", n.ID, path)
		}
		seen[n.ID] = true

		n.RPCURL = ExpandRPCURL(n.RPCURL)
		if n.Label == "" {
			n.Label = n.ID
		}
	}

	return file.Networks, nil
}

// ExpandRPCURL expands ${VAR} and $VAR references. If any referenced
// variable is unset or empty the whole URL resolves to "", so a partially
// expanded URL is never used as an upstream.
func ExpandRPCURL(raw string) string {
	missing := false
	expanded := os.Expand(raw, func(name string) string {
		val := os.Getenv(name)
		if val == "" {
			missing = true
		}
		return val
	})
	if missing {
		return ""
	}
	return strings.TrimSpace(expanded)
}
