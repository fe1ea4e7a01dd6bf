package schema

import (
	"sort"
	"sync"
	"time"

	"composer-core/domain/model"
	pkgerrors "composer-core/pkg/errors"

	"github.com/google/uuid"
)

// Builtin computed default names
const (
	FuncUUID      = "uuid"
	FuncTimestamp = "timestamp"
)

// Functions is the table of computed defaults a schema document can reference by name.
type Functions struct {
	mu  sync.RWMutex
	fns map[string]model.DefaultFunc
	now func() time.Time
}

// NewFunctions creates a table holding the builtin functions.
func NewFunctions() *Functions {
	f := &Functions{
		fns: make(map[string]model.DefaultFunc),
		now: time.Now,
	}
	f.fns[FuncUUID] = func(*model.DefaultContext) (any, error) {
		return uuid.NewString(), nil
	}
	f.fns[FuncTimestamp] = func(*model.DefaultContext) (any, error) {
		return f.now().UTC().Format(time.RFC3339Nano), nil
	}
	return f
}

// Register adds a named computed default. Names are unique; builtins cannot be replaced.
func (f *Functions) Register(name string, fn model.DefaultFunc) error {
	if name == "" || fn == nil {
		return pkgerrors.NewSchemaError("computed default needs a name and a function")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.fns[name]; exists {
		return pkgerrors.NewSchemaError("computed default %q already registered", name)
	}
	f.fns[name] = fn
	return nil
}

// Lookup returns the function registered under name.
func (f *Functions) Lookup(name string) (model.DefaultFunc, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fn, ok := f.fns[name]
	return fn, ok
}

// Names lists the registered functions in lexical order.
func (f *Functions) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.fns))
	for name := range f.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
