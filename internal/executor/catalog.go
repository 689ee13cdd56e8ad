package executor

import (
	"context"
	"fmt"
	"sort"

	"github.com/mattjoyce/livebridge/internal/protocol"
)

// Func handles one action.
type Func func(ctx context.Context, params protocol.Params) (protocol.Result, error)

// Catalog is an Executor backed by a name -> Func table.
// Registration happens at startup; the table is read-only afterwards.
type Catalog struct {
	funcs map[string]Func
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{funcs: make(map[string]Func)}
}

// Register adds fn under name.
func (c *Catalog) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("action name is empty")
	}
	if fn == nil {
		return fmt.Errorf("action %s: nil handler", name)
	}
	if name == protocol.ActionPing || name == protocol.ActionHealthCheck {
		return fmt.Errorf("action %s is reserved", name)
	}
	if _, exists := c.funcs[name]; exists {
		return fmt.Errorf("action %s already registered", name)
	}
	c.funcs[name] = fn
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (c *Catalog) MustRegister(name string, fn Func) {
	if err := c.Register(name, fn); err != nil {
		panic(err)
	}
}

// Execute dispatches to the registered Func.
func (c *Catalog) Execute(ctx context.Context, action string, params protocol.Params) (protocol.Result, error) {
	fn, ok := c.funcs[action]
	if !ok {
		return protocol.Result{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return fn(ctx, params)
}

// Actions returns the registered names, sorted.
func (c *Catalog) Actions() []string {
	names := make([]string, 0, len(c.funcs))
	for name := range c.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
