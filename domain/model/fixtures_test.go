package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// newDocumentRegistry defines Tag and Document and initializes the registry:
//
//	Tag      { label }
//	Document { name = "untitled", slug = computed(name), count = 0, tags: []Tag }
func newDocumentRegistry(t *testing.T, opts ...Option) (*Registry, *ModelType, *ModelType) {
	t.Helper()

	reg := NewRegistry(opts...)
	tag, err := reg.Define("Tag", MustSchema(
		Property("label", TypeString),
	))
	require.NoError(t, err)

	doc, err := reg.Define("Document", MustSchema(
		Property("name", TypeString).WithDefault("untitled"),
		Property("slug", TypeString).WithComputed(func(ctx *DefaultContext) (any, error) {
			name, _ := ctx.Get("name")
			s, _ := name.(string)
			return strings.ReplaceAll(strings.ToLower(s), " ", "-"), nil
		}),
		Property("count", TypeInteger).WithDefault(0),
		CollectionOf("tags", "Tag"),
	))
	require.NoError(t, err)

	require.NoError(t, reg.Init())
	return reg, doc, tag
}

type recordingMetrics struct {
	constructed map[string]int
	failures    map[string]int
	mutations   map[string]int
	types       int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		constructed: make(map[string]int),
		failures:    make(map[string]int),
		mutations:   make(map[string]int),
	}
}

func (m *recordingMetrics) RecordConstructed(model string) {
	m.constructed[model]++
}

func (m *recordingMetrics) RecordConstructionFailure(model, errorType string) {
	m.failures[model+"/"+errorType]++
}

func (m *recordingMetrics) RecordCollectionMutation(model, property, operation string) {
	m.mutations[model+"."+property+"/"+operation]++
}

func (m *recordingMetrics) SetModelTypes(n int) {
	m.types = n
}
