package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	InterfacePath string // interface hcl file
	AppPath       string // operations hcl file or directory
	MeshPath      string // overrides the interface's mesh block

	Ranks   int
	HostURL string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.InterfacePath == "" {
		return nil, errors.New("InterfacePath is a required configuration field and cannot be empty")
	}
	if cfg.AppPath == "" {
		return nil, errors.New("AppPath is a required configuration field and cannot be empty")
	}
	if cfg.Ranks == 0 {
		cfg.Ranks = 1
	}
	if cfg.Ranks < 0 {
		return nil, errors.New("Ranks must be positive")
	}
	if cfg.HostURL != "" && cfg.Ranks > 1 {
		return nil, errors.New("a host connection drives a single rank; drop HostURL or set Ranks to 1")
	}
	return &cfg, nil
}
