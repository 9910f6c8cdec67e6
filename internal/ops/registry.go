/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup represents the operational classification of commands
type CommandGroup string

const (
	GroupReconcile CommandGroup = "reconcile" // merge, diff
	GroupSupport   CommandGroup = "support"   // version, help
)

var groupTitles = map[CommandGroup]string{
	GroupReconcile: "Reconcile Commands:",
	GroupSupport:   "Support Commands:",
}

// groupOrder is the order groups appear in help output.
var groupOrder = []CommandGroup{GroupReconcile, GroupSupport}

// CommandRegistration represents a registered command with its classification
type CommandRegistration struct {
	Name        string
	Group       CommandGroup
	Command     *cobra.Command
	Description string
	// Mutates is true for commands that may change configuration trees;
	// root help marks them.
	Mutates bool
}

// Registry manages command classifications and registrations
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandRegistration
	groupIndex map[CommandGroup][]*CommandRegistration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandRegistration),
		groupIndex: make(map[CommandGroup][]*CommandRegistration),
	}
}

// Global registry instance
var globalRegistry = NewRegistry()

// GetRegistry returns the global command registry
func GetRegistry() *Registry {
	return globalRegistry
}

// Register adds a command to the registry and tags it with its help group.
func (r *Registry) Register(reg *CommandRegistration) error {
	if _, ok := groupTitles[reg.Group]; !ok {
		return fmt.Errorf("command %s: unknown group %q", reg.Name, reg.Group)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[reg.Name]; exists {
		return fmt.Errorf("command %s already registered", reg.Name)
	}
	if reg.Command != nil {
		reg.Command.GroupID = string(reg.Group)
	}

	r.commands[reg.Name] = reg
	r.groupIndex[reg.Group] = append(r.groupIndex[reg.Group], reg)
	return nil
}

// GetCommandsByGroup returns all commands in a specific group
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*CommandRegistration(nil), r.groupIndex[group]...)
}

// CobraGroups returns the help groups for a root command, in display order.
func CobraGroups() []*cobra.Group {
	groups := make([]*cobra.Group, 0, len(groupOrder))
	for _, g := range groupOrder {
		groups = append(groups, &cobra.Group{ID: string(g), Title: groupTitles[g]})
	}
	return groups
}
