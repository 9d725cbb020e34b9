package config

import (
	"fmt"

	"github.com/cognicore/horn/pkg/horn/kbio"
	"github.com/cognicore/horn/pkg/horn/logic"
)

// Loader loads all configuration files and constructs components
type Loader struct {
	ConfigPath    string
	KBPath        string
	StatementPath string
}

// Components holds all loaded configuration components
type Components struct {
	Config *Config
	// KB is the knowledge base as read. horn.Prove standardizes it apart.
	KB        logic.KB
	Statement *logic.Atom
}

// Load reads all configuration files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	// Load config
	if l.ConfigPath != "" {
		cfg, err := Load(l.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		comp.Config = cfg
	} else {
		comp.Config = Default()
	}

	// Load knowledge base
	if l.KBPath != "" {
		kb, err := kbio.LoadKBFile(l.KBPath)
		if err != nil {
			return nil, fmt.Errorf("load knowledge base: %w", err)
		}
		comp.KB = kb
	}

	// Load statement
	if l.StatementPath != "" {
		stmt, err := kbio.LoadStatementFile(l.StatementPath)
		if err != nil {
			return nil, fmt.Errorf("load statement: %w", err)
		}
		comp.Statement = &stmt
	}

	return comp, nil
}
