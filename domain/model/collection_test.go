package model

import (
	"errors"
	"testing"

	pkgerrors "composer-core/pkg/errors"
	"composer-core/pkg/extensions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTags(t *testing.T, labels ...string) (*Collection, *ModelType, *Registry) {
	t.Helper()
	reg, doc, tag := newDocumentRegistry(t)

	items := make([]any, len(labels))
	for i, label := range labels {
		items[i] = Properties{"label": label}
	}
	r := doc.MustParse(Properties{"tags": items})
	tags, err := r.Collection("tags")
	require.NoError(t, err)
	return tags, tag, reg
}

func labelsOf(c *Collection) []string {
	labels := []string{}
	for _, child := range c.All() {
		label, _ := child.String("label")
		labels = append(labels, label)
	}
	return labels
}

func TestCollection_Metadata(t *testing.T) {
	tags, tag, _ := newTags(t)

	assert.Equal(t, "tags", tags.Property())
	assert.Same(t, tag, tags.ChildType())
	assert.Equal(t, "Document", tags.Owner().Type().Name())
	assert.True(t, tags.Definition().Collection)
}

func TestCollection_Append(t *testing.T) {
	tags, tag, _ := newTags(t, "a")

	child, err := tags.Append(Properties{"label": "b"})
	require.NoError(t, err)
	assert.Same(t, tags, child.Owner())

	existing := tag.MustParse(Properties{"label": "c"})
	adopted, err := tags.Append(existing)
	require.NoError(t, err)
	assert.Same(t, existing, adopted)
	assert.Same(t, tags, existing.Owner())

	_, err = tags.Append(map[string]any{"label": "d"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, labelsOf(tags))
	assert.Equal(t, 4, tags.Len())
}

func TestCollection_AppendRejects(t *testing.T) {
	tags, tag, reg := newTags(t, "a")

	t.Run("record of another type", func(t *testing.T) {
		doc, err := reg.Lookup("Document")
		require.NoError(t, err)

		_, err = tags.Append(doc.MustParse(nil))
		require.Error(t, err)
		assert.True(t, pkgerrors.IsChildConstruction(err))
	})

	t.Run("record owned by another collection", func(t *testing.T) {
		first := tag.MustParse(Properties{"label": "y"})
		_, err := tags.Append(first)
		require.NoError(t, err)

		_, err = tags.Append(first)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsChildConstruction(err))
		assert.Contains(t, err.Error(), "already owned")
	})

	t.Run("unsupported item", func(t *testing.T) {
		_, err := tags.Append(42)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsChildConstruction(err))
	})

	assert.Equal(t, []string{"a", "y"}, labelsOf(tags))
}

func TestCollection_Remove(t *testing.T) {
	tags, _, _ := newTags(t, "a", "b", "c")

	b, ok := tags.At(1)
	require.True(t, ok)

	assert.True(t, tags.Remove(b))
	assert.Nil(t, b.Owner())
	assert.Equal(t, []string{"a", "c"}, labelsOf(tags))
	assert.Equal(t, -1, tags.IndexOf(b))

	assert.False(t, tags.Remove(b), "removing a non-member reports false")

	// a removed child can be adopted again
	_, err := tags.Append(b)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, labelsOf(tags))
}

func TestCollection_RemoveAt(t *testing.T) {
	tags, _, _ := newTags(t, "a", "b")

	removed, err := tags.RemoveAt(0)
	require.NoError(t, err)
	label, _ := removed.String("label")
	assert.Equal(t, "a", label)

	_, err = tags.RemoveAt(5)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = tags.RemoveAt(-1)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestCollection_At(t *testing.T) {
	tags, _, _ := newTags(t, "a")

	_, ok := tags.At(0)
	assert.True(t, ok)
	_, ok = tags.At(1)
	assert.False(t, ok)
	_, ok = tags.At(-1)
	assert.False(t, ok)
}

func TestCollection_AllIsRestartable(t *testing.T) {
	tags, _, _ := newTags(t, "a", "b", "c")

	seq := tags.All()
	collect := func() []int {
		var idx []int
		for i := range seq {
			idx = append(idx, i)
		}
		return idx
	}
	assert.Equal(t, []int{0, 1, 2}, collect())
	assert.Equal(t, []int{0, 1, 2}, collect())

	// early break
	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestCollection_AllSnapshot(t *testing.T) {
	tags, _, _ := newTags(t, "a", "b", "c")

	var seen []string
	for i, child := range tags.All() {
		label, _ := child.String("label")
		seen = append(seen, label)
		if i == 0 {
			_, err := tags.RemoveAt(2)
			require.NoError(t, err)
			_, err = tags.Append(Properties{"label": "z"})
			require.NoError(t, err)
		}
	}
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, []string{"a", "b", "z"}, labelsOf(tags))
}

func TestCollection_RecordsIsACopy(t *testing.T) {
	tags, _, _ := newTags(t, "a", "b")

	records := tags.Records()
	records[0] = nil

	first, ok := tags.At(0)
	require.True(t, ok)
	assert.NotNil(t, first)
	assert.Equal(t, 2, tags.Len())
}

func TestCollection_Clear(t *testing.T) {
	tags, _, _ := newTags(t, "a", "b")
	children := tags.Records()

	tags.Clear()
	assert.Equal(t, 0, tags.Len())
	for _, child := range children {
		assert.Nil(t, child.Owner())
	}
}

func TestCollection_Serialize(t *testing.T) {
	tags, _, _ := newTags(t, "a", "b")

	data, err := tags.Serialize()
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"label": "a"}, {"label": "b"}}, data)
}

func TestNewCollection_RequiresOwnerAndType(t *testing.T) {
	_, err := NewCollection(CollectionSpec{Property: "tags"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsSchema(err))
}

func TestParse_FailureReleasesAdoptedChildren(t *testing.T) {
	_, doc, tag := newDocumentRegistry(t)
	loose := tag.MustParse(Properties{"label": "loose"})

	_, err := doc.Parse(Properties{"tags": []any{loose, 42}})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsChildConstruction(err))
	assert.Nil(t, loose.Owner())

	other := doc.MustParse(nil)
	tags, err := other.Collection("tags")
	require.NoError(t, err)
	_, err = tags.Append(loose)
	require.NoError(t, err)
	assert.Same(t, tags, loose.Owner())
}

func TestParse_HookFailureReleasesAdoptedChildren(t *testing.T) {
	hooks := extensions.NewHookManager()
	hooks.Register(extensions.HookAfterConstruct, func(data extensions.HookData) error {
		if data.Model == "Document" {
			return errors.New("rejected")
		}
		return nil
	})
	_, doc, tag := newDocumentRegistry(t, WithHooks(hooks))
	loose := tag.MustParse(Properties{"label": "loose"})

	_, err := doc.Parse(Properties{"tags": []any{loose}})
	require.Error(t, err)
	assert.Nil(t, loose.Owner())
}

func TestCollection_RejectsCycles(t *testing.T) {
	reg := NewRegistry()
	node := reg.MustDefine("Node", MustSchema(
		Property("name", TypeString),
		CollectionOf("children", "Node"),
	))
	require.NoError(t, reg.Init())

	root := node.MustParse(Properties{"name": "root"})
	children, err := root.Collection("children")
	require.NoError(t, err)

	_, err = children.Append(root)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsChildConstruction(err))
	assert.Contains(t, err.Error(), "below itself")

	child, err := children.Append(Properties{"name": "child"})
	require.NoError(t, err)
	grandchildren, err := child.Collection("children")
	require.NoError(t, err)

	_, err = grandchildren.Append(root)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsChildConstruction(err))
	assert.Equal(t, 0, grandchildren.Len())

	// siblings are not ancestors
	_, err = grandchildren.Append(node.MustParse(Properties{"name": "leaf"}))
	require.NoError(t, err)

	data, err := root.Serialize()
	require.NoError(t, err)
	assert.Len(t, data["children"], 1)
}

func TestCollection_HookFailureKeepsMutation(t *testing.T) {
	hooks := extensions.NewHookManager()
	_, doc, _ := newDocumentRegistry(t, WithHooks(hooks))
	tags, err := doc.MustParse(nil).Collection("tags")
	require.NoError(t, err)

	boom := errors.New("hook failed")
	hooks.Register(extensions.HookAfterAppend, func(extensions.HookData) error { return boom })
	hooks.Register(extensions.HookAfterRemove, func(extensions.HookData) error { return boom })

	child, err := tags.Append(Properties{"label": "a"})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, child)
	assert.Equal(t, 1, tags.Len())
	assert.Same(t, tags, child.Owner())

	removed, err := tags.RemoveAt(0)
	assert.ErrorIs(t, err, boom)
	assert.Same(t, child, removed)
	assert.Equal(t, 0, tags.Len())
	assert.Nil(t, child.Owner())

	again, err := tags.Append(Properties{"label": "b"})
	assert.ErrorIs(t, err, boom)
	assert.True(t, tags.Remove(again))
	assert.Equal(t, 0, tags.Len())
}
