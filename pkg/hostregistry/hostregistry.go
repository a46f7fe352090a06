// Package hostregistry implements the host registry (§4.2): a frozen,
// validated view of hosts.yaml that the dispatcher and executor consult to
// turn a platform into a concrete reachable host, honoring a tool's own
// per-platform override before falling back to the registry's default
// pick for that platform.
package hostregistry

import (
	"fmt"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var registryLog = logger.New("hostregistry")

// Registry is built once per run and never mutated afterward.
type Registry struct {
	byID       map[string]model.HostDescriptor
	byPlatform map[string][]model.HostDescriptor // platform string -> hosts, in hosts.yaml order
}

// New builds a Registry from the parsed hosts.yaml document, rejecting
// duplicate ids (already caught by pkg/config, but defended here too since
// a Registry may be constructed directly by tests or future callers) and
// hosts with an empty id or platform.
func New(hosts []model.HostDescriptor) (*Registry, error) {
	r := &Registry{
		byID:       make(map[string]model.HostDescriptor, len(hosts)),
		byPlatform: make(map[string][]model.HostDescriptor),
	}
	for _, h := range hosts {
		if h.ID == "" {
			return nil, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "host entry missing id")
		}
		if h.Platform.OS == "" || h.Platform.Arch == "" {
			return nil, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, fmt.Sprintf("host %q missing platform", h.ID))
		}
		if _, exists := r.byID[h.ID]; exists {
			return nil, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, fmt.Sprintf("duplicate host id %q", h.ID))
		}
		r.byID[h.ID] = h
		key := h.Platform.String()
		r.byPlatform[key] = append(r.byPlatform[key], h)
	}
	return r, nil
}

// Lookup resolves the host to use for a (tool, platform) pair: the tool's
// HostOverride wins if present and known; otherwise the first registered
// host declared for that platform, in hosts.yaml order (§4.2 "first
// matching host wins").
func (r *Registry) Lookup(tool model.ToolDescriptor, platform model.Platform) (model.HostDescriptor, error) {
	key := platform.String()

	if override, ok := tool.HostOverride[key]; ok {
		host, known := r.byID[override]
		if !known {
			return model.HostDescriptor{}, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid,
				fmt.Sprintf("tool %q overrides platform %s to unknown host %q", tool.Name, key, override)).WithTarget(tool.Name)
		}
		return host, nil
	}

	candidates := r.byPlatform[key]
	if len(candidates) == 0 {
		registryLog.Printf("no registered host for platform %s (tool %s)", key, tool.Name)
		return model.HostDescriptor{}, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid,
			fmt.Sprintf("no host registered for platform %s", key)).WithTarget(tool.Name)
	}
	return candidates[0], nil
}

// ByID returns the host with the given id, if registered.
func (r *Registry) ByID(id string) (model.HostDescriptor, bool) {
	h, ok := r.byID[id]
	return h, ok
}

// Platforms returns every platform the registry has at least one host for.
func (r *Registry) Platforms() []model.Platform {
	platforms := make([]model.Platform, 0, len(r.byPlatform))
	seen := make(map[string]bool, len(r.byPlatform))
	for _, hosts := range r.byPlatform {
		for _, h := range hosts {
			key := h.Platform.String()
			if !seen[key] {
				seen[key] = true
				platforms = append(platforms, h.Platform)
			}
		}
	}
	return platforms
}
