package tools

import "github.com/hw112/lldm/internal/ledger"

// Registry is the closed set of functions the narrator model may call.
// Lookup is total over these three names; anything else is a contract
// mismatch handled by the dispatcher.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds the fixed obtain/discard/query registry bound to one
// ledger scope.
func NewRegistry(store *ledger.Store, scope ledger.Scope) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range []Tool{
		NewObtainTool(store, scope),
		NewDiscardTool(store, scope),
		NewQueryInfoTool(store, scope),
	} {
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return r
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions lists the registered function declarations in registration
// order, for the assistant's tool configuration.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}
