package dwarf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SessionConfig is the user-facing knobs for a parse session, loaded from a
// YAML file so a CLI session (cmd/cpu/symbols.go) or a saved debugging
// session can be replayed without re-typing flags every time.
type SessionConfig struct {
	// BinaryPath is the ELF/object file to read DWARF sections from.
	BinaryPath string `yaml:"binary_path"`
	// ImageBase is the address the binary is actually loaded at. It is
	// added once, via Normalizer, to every address-form attribute value
	// (DW_FORM_addr, e.g. DW_AT_low_pc), so a caller that loaded the binary
	// somewhere other than its link-time address still resolves symbols
	// against real addresses (spec.md §3, §4.3). DW_OP_addr operands inside
	// location expressions are not adjusted.
	ImageBase uint64 `yaml:"image_base"`
	// FailFast asks the caller to treat any recorded diagnostic as fatal.
	// Session.Parse does not read it.
	FailFast bool `yaml:"fail_fast"`
	// PreloadNameIndex asks the caller to build the by-name type index
	// (Provider.TypeNames) right after opening instead of lazily on the
	// first TypeID call. Session.Parse does not read it.
	PreloadNameIndex bool `yaml:"preload_name_index"`
}

// Normalizer builds the AddressNormalizer Parse should use for this config:
// adding ImageBase to every decoded address-form value exactly once. A zero
// ImageBase is the identity function.
func (c SessionConfig) Normalizer() AddressNormalizer {
	base := c.ImageBase
	return func(addr uint64) uint64 { return addr + base }
}

// DefaultSessionConfig returns the configuration used when no YAML file is
// given.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		FailFast:         false,
		PreloadNameIndex: false,
	}
}

// LoadSessionConfig reads a SessionConfig from a YAML file at path, layered
// over DefaultSessionConfig so a partial file only overrides what it sets.
func LoadSessionConfig(path string) (SessionConfig, error) {
	cfg := DefaultSessionConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading session config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing session config %q: %w", path, err)
	}
	if cfg.BinaryPath == "" {
		return cfg, fmt.Errorf("session config %q: binary_path is required", path)
	}
	return cfg, nil
}
