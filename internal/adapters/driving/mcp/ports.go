package mcp

import (
	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Split runs the topic pipeline.
	Split driving.SplitService

	// Search queries exported topics. Optional.
	Search driving.SearchService

	// Settings supplies default run options. Optional; built-in defaults
	// are used without it.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Split == nil {
		return ErrMissingSplitService
	}
	return nil
}

// options returns the run options from settings, read on every call so
// edits made while the server runs take effect.
func (p *Ports) options() driving.SplitOptions {
	if p.Settings != nil {
		if s, err := p.Settings.Get(); err == nil && s != nil {
			return driving.OptionsFromSettings(*s)
		}
	}
	return driving.OptionsFromSettings(domain.DefaultAppSettings())
}
