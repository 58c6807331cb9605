// Package process runs ERP process definitions: a registry of named
// processes with load and execute hooks, the kernel-backed default, and the
// manual processes that open classic popups.
package process

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/etendosoftware/workspace-gateway/internal/domain"
)

// Parameter describes one input of a process definition.
type Parameter struct {
	ID                      string `json:"id"`
	Name                    string `json:"name"`
	Reference               string `json:"reference"`
	DefaultValue            string `json:"defaultValue,omitempty"`
	Mandatory               bool   `json:"mandatory"`
	ReadOnlyLogicExpression string `json:"readOnlyLogicExpression,omitempty"`
}

// Definition is the process definition attached to a toolbar or field
// button.
type Definition struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	JavaClassName string               `json:"javaClassName,omitempty"`
	Parameters    map[string]Parameter `json:"parameters,omitempty"`
}

// LoadContext is what a process sees when its dialog opens.
type LoadContext struct {
	TabID           string                    `json:"tabId"`
	WindowID        string                    `json:"windowId,omitempty"`
	SelectedRecords map[string]map[string]any `json:"selectedRecords,omitempty"`
}

// ExecParams are the values a process runs with.
type ExecParams struct {
	RecordIDs   []string       `json:"recordIds"`
	WindowID    string         `json:"windowId"`
	EntityName  string         `json:"entityName"`
	ButtonValue any            `json:"buttonValue,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

// Result is the JSON object a hook hands back to the caller.
type Result map[string]any

// Process is a named script with a load and an execute hook.
type Process interface {
	OnLoad(ctx context.Context, s domain.Session, def Definition, lc LoadContext) (Result, error)
	OnProcess(ctx context.Context, s domain.Session, def Definition, p ExecParams) (Result, error)
}

type Registry struct {
	mu    sync.RWMutex
	procs map[string]Process
}

func NewRegistry() *Registry {
	return &Registry{procs: make(map[string]Process)}
}

// Register adds or replaces the process called name.
func (r *Registry) Register(name string, p Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.procs[name] = p
}

func (r *Registry) Lookup(name string) (Process, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[name]
	if !ok {
		return nil, fmt.Errorf("%w: process %q", domain.ErrNotFound, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.procs))
	for n := range r.procs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Load(ctx context.Context, s domain.Session, name string, def Definition, lc LoadContext) (Result, error) {
	p, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return p.OnLoad(ctx, s, def, lc)
}

func (r *Registry) Execute(ctx context.Context, s domain.Session, name string, def Definition, ep ExecParams) (Result, error) {
	p, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return p.OnProcess(ctx, s, def, ep)
}
