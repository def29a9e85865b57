package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProfileFile optionally overrides the profile section of config.yml.
const ProfileFile = "profile.yml"

type profileFile struct {
	Skills       []string `yaml:"skills"`
	Competencies []string `yaml:"competencies"`
	Blacklist    []string `yaml:"blacklist"`
}

// OverlayProfile replaces the profile lists with the non-empty ones from path.
// A missing file is not an error.
func OverlayProfile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read profile overlay: %w", err)
	}

	var pf profileFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return fmt.Errorf("parse profile overlay %s: %w", path, err)
	}

	if len(pf.Skills) > 0 {
		cfg.Profile.Skills = pf.Skills
	}
	if len(pf.Competencies) > 0 {
		cfg.Profile.Competencies = pf.Competencies
	}
	if len(pf.Blacklist) > 0 {
		cfg.Search.Blacklist = pf.Blacklist
	}
	return nil
}
