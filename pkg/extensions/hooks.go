package extensions

import (
	"fmt"
	"sync"
)

// HookPoint represents a point in the record lifecycle where hooks can be registered
type HookPoint string

const (
	// Record lifecycle hooks
	HookAfterConstruct     HookPoint = "after_construct"
	HookAfterSetProperties HookPoint = "after_set_properties"
	HookAfterClone         HookPoint = "after_clone"

	// Collection hooks
	HookAfterAppend HookPoint = "after_append"
	HookAfterRemove HookPoint = "after_remove"

	// Data transformation
	HookBeforeSerialization HookPoint = "before_serialization"
)

// HookData represents data passed to hooks
type HookData struct {
	Model    string                 `json:"model"`
	RecordID string                 `json:"record_id"`
	Property string                 `json:"property,omitempty"`
	Record   interface{}            `json:"-"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Hook represents a function that runs at a hook point. Hooks run synchronously in
// registration order and a failing hook stops the chain.
type Hook func(data HookData) error

// HookManager manages hooks for extension points
type HookManager struct {
	hooks map[HookPoint][]Hook
	mu    sync.RWMutex
}

// NewHookManager creates a new hook manager
func NewHookManager() *HookManager {
	return &HookManager{
		hooks: make(map[HookPoint][]Hook),
	}
}

// Register registers a hook for a specific hook point
func (m *HookManager) Register(point HookPoint, hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks[point] = append(m.hooks[point], hook)
}

// Execute executes all hooks for a specific hook point
func (m *HookManager) Execute(point HookPoint, data HookData) error {
	if m == nil {
		return nil
	}

	m.mu.RLock()
	hooks := m.hooks[point]
	m.mu.RUnlock()

	for i, hook := range hooks {
		if err := hook(data); err != nil {
			return fmt.Errorf("hook %d at %s failed: %w", i, point, err)
		}
	}

	return nil
}

// Count returns the number of hooks registered at point
func (m *HookManager) Count(point HookPoint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.hooks[point])
}

// Clear removes all hooks for a specific hook point
func (m *HookManager) Clear(point HookPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.hooks, point)
}

// ClearAll removes all registered hooks
func (m *HookManager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[HookPoint][]Hook)
}
