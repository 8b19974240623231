package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/stellarforge/fleet-tactics/pkg/logger"
	"github.com/stellarforge/fleet-tactics/pkg/simulation"
)

// SimulationInfo describes a simulation discovered on disk.
type SimulationInfo struct {
	Path     string
	Manifest simulation.Manifest
}

// DiscoverSimulations scans the cmd directory for simulation.yaml manifests.
func DiscoverSimulations() ([]SimulationInfo, error) {
	rootDir, err := findProjectRoot()
	if err != nil {
		return nil, err
	}

	cmdDir := filepath.Join(rootDir, "cmd")

	var simulations []SimulationInfo
	err = filepath.Walk(cmdDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Name() != "simulation.yaml" {
			return nil
		}

		simInfo, err := loadSimulationManifest(path)
		if err != nil {
			logger.Warnf("skipping %s: %v", path, err)
			return nil
		}
		simulations = append(simulations, *simInfo)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan for simulations: %w", err)
	}

	return simulations, nil
}

func loadSimulationManifest(path string) (*SimulationInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulation manifest: %w", err)
	}

	var manifest simulation.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse simulation manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	return &SimulationInfo{
		Path:     filepath.Dir(path),
		Manifest: manifest,
	}, nil
}

// findProjectRoot walks up from the working directory until it sees go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (no go.mod found)")
		}
		dir = parent
	}
}
