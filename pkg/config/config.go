package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/JamesRaub/scarab/pkg/motor"
)

// Drive is the robot driver configuration.
type Drive struct {
	Port    string `yaml:"portname"`
	Address byte   `yaml:"address"`

	Broker string `yaml:"broker"`

	OdomFrame string  `yaml:"odom_frame"`
	BaseFrame string  `yaml:"base_frame"`
	Freq      float64 `yaml:"freq"`

	Motor motor.Tuning `yaml:"motor"`
}

func DefaultDrive() Drive {
	return Drive{
		Port:      "/dev/roboclaw",
		Address:   0x80,
		Broker:    "tcp://localhost:1883",
		OdomFrame: "odom",
		BaseFrame: "base",
		Freq:      30.0,
		Motor:     motor.DefaultTuning(),
	}
}

// LoadDrive reads the driver config, filling anything not mentioned in the
// file with the defaults.  An unreadable file is fatal to startup; an empty
// path just gives the defaults.
func LoadDrive(path string) (Drive, error) {
	cfg := DefaultDrive()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	fmt.Printf("Using config: %+v\n", cfg)
	return cfg, nil
}

// SimAgent describes one simulated robot.
type SimAgent struct {
	Name string `yaml:"name"`

	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Theta float64 `yaml:"theta"`

	// Integration and publication rates, Hz.
	Freq        float64 `yaml:"freq"`
	PublishFreq float64 `yaml:"publish_freq"`
}

// Sim is the kinematic simulator configuration.
type Sim struct {
	Broker string `yaml:"broker"`

	// Frame suffixes; each agent's frames are "<name>/<suffix>".
	OdomFrame string `yaml:"odom_frame"`
	BaseFrame string `yaml:"base_frame"`

	Agents []SimAgent `yaml:"agents"`
}

func DefaultSim() Sim {
	return Sim{
		Broker:    "tcp://localhost:1883",
		OdomFrame: "odom",
		BaseFrame: "base_link",
	}
}

// LoadSim reads the simulator config.  Per-agent rates left at zero get the
// usual 50 Hz integration / 10 Hz publication.
func LoadSim(path string) (Sim, error) {
	cfg := DefaultSim()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	for i := range cfg.Agents {
		a := &cfg.Agents[i]
		if a.Name == "" {
			a.Name = fmt.Sprintf("agent%d", i)
		}
		if a.Freq == 0 {
			a.Freq = 50.0
		}
		if a.PublishFreq == 0 {
			a.PublishFreq = 10.0
		}
	}
	fmt.Printf("Using config: %+v\n", cfg)
	return cfg, nil
}
