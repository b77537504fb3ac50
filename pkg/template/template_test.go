package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autodoc/pkg/template"
)

func TestParseKind_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, kind := range template.Kinds() {
		parsed, err := template.ParseKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}
}

func TestParseKind_CaseInsensitive(t *testing.T) {
	t.Parallel()

	kind, err := template.ParseKind(" Method ")
	require.NoError(t, err)
	assert.Equal(t, template.KindMethod, kind)
}

func TestParseKind_Unknown(t *testing.T) {
	t.Parallel()

	_, err := template.ParseKind("package")
	require.ErrorIs(t, err, template.ErrInvalidKind)

	_, err = template.ParseKind("metod")
	require.ErrorIs(t, err, template.ErrInvalidKind)
	assert.Contains(t, err.Error(), `did you mean "method"?`)
}

func TestKind_UnmarshalText(t *testing.T) {
	t.Parallel()

	var kind template.Kind

	require.NoError(t, kind.UnmarshalText([]byte("exception")))
	assert.Equal(t, template.KindException, kind)

	text, err := template.KindParameter.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "parameter", string(text))

	_, err = template.Kind(42).MarshalText()
	require.ErrorIs(t, err, template.ErrInvalidKind)
}

func TestEntry_FullMatchOnly(t *testing.T) {
	t.Parallel()

	entry := template.NewEntry(template.KindMethod, "foo", "foo", "", false)

	_, ok, err := entry.Match("foobar")
	require.NoError(t, err)
	assert.False(t, ok)

	captures, ok, err := entry.Match("foo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"foo"}, captures)
}

func TestEntry_AlternationMatchesWholeString(t *testing.T) {
	t.Parallel()

	entry := template.NewEntry(template.KindMethod, "alt", "foo|foobar", "", false)

	_, ok, err := entry.Match("foobar")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEntry_Captures(t *testing.T) {
	t.Parallel()

	entry := template.NewEntry(template.KindMethod, "getter", "get(.+)", "", false)

	captures, ok, err := entry.Match("getUserName")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"getUserName", "UserName"}, captures)
}

func TestEntry_CaseSensitive(t *testing.T) {
	t.Parallel()

	entry := template.NewEntry(template.KindMethod, "getter", "get.*", "", false)

	_, ok, err := entry.Match("GetName")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEntry_InvalidPatternIsLazy(t *testing.T) {
	t.Parallel()

	entry := template.NewEntry(template.KindField, "broken", "(unclosed", "", false)

	set := template.NewSet()
	require.NoError(t, set.Add(template.KindField, entry))

	_, _, err := entry.Match("x")
	require.ErrorIs(t, err, template.ErrPattern)

	// The failure is memoized.
	_, err = entry.Regexp()
	require.ErrorIs(t, err, template.ErrPattern)
}

func TestEntry_Target(t *testing.T) {
	t.Parallel()

	byName := template.NewEntry(template.KindMethod, "a", ".*", "", false)
	bySignature := template.NewEntry(template.KindMethod, "b", ".*", "", true)

	assert.Equal(t, "save", byName.Target("save", "void save()"))
	assert.Equal(t, "void save()", bySignature.Target("save", "void save()"))
}

func TestEntry_Description(t *testing.T) {
	t.Parallel()

	parent := template.NewEntry(template.KindType, "service", ".*Service", "", false)
	child := template.NewEntry(template.KindMethod, "save", "save.*", "", false)

	require.NoError(t, parent.AddChild(template.KindMethod, child))

	assert.Equal(t, "Type", parent.Description())
	assert.Equal(t, "Method of Type", child.Description())

	kind, ok := child.ParentKind()
	assert.True(t, ok)
	assert.Equal(t, template.KindType, kind)
	assert.True(t, parent.HasChildren())
}

func TestSet_InsertionOrder(t *testing.T) {
	t.Parallel()

	set := template.NewSet()
	first := template.NewEntry(template.KindField, "first", ".*", "", false)
	second := template.NewEntry(template.KindField, "second", ".*", "", false)

	require.NoError(t, set.Add(template.KindField, first))
	require.NoError(t, set.Add(template.KindField, second))

	assert.Equal(t, []*template.Entry{first, second}, set.Entries(template.KindField))
	assert.Empty(t, set.Entries(template.KindMethod))
	assert.Equal(t, 2, set.Len())
}

func TestSet_NoAutomaticDeduplication(t *testing.T) {
	t.Parallel()

	set := template.NewSet()
	require.NoError(t, set.Add(template.KindType, template.NewEntry(template.KindType, "dup", ".*", "", false)))
	require.NoError(t, set.Add(template.KindType, template.NewEntry(template.KindType, "dup", ".*", "", false)))

	assert.Len(t, set.Entries(template.KindType), 2)
}

func TestSet_AddInvalidKind(t *testing.T) {
	t.Parallel()

	set := template.NewSet()
	err := set.Add(template.Kind(-1), template.NewEntry(template.KindType, "x", ".*", "", false))
	require.ErrorIs(t, err, template.ErrInvalidKind)
}

func TestSet_EntriesInvalidKindPanics(t *testing.T) {
	t.Parallel()

	set := template.NewSet()

	assert.Panics(t, func() { set.Entries(template.Kind(9)) })
}

func TestSet_ChildEntries(t *testing.T) {
	t.Parallel()

	set := template.NewSet()
	parent := template.NewEntry(template.KindType, "svc", ".*Service", "", false)
	child := template.NewEntry(template.KindMethod, "save", "save.*", "", false)

	require.NoError(t, parent.AddChild(template.KindMethod, child))
	require.NoError(t, set.Add(template.KindType, parent))

	assert.Equal(t, []*template.Entry{child}, set.ChildEntries(parent, template.KindMethod))
	assert.Empty(t, set.ChildEntries(parent, template.KindField))
	assert.Empty(t, set.ChildEntries(nil, template.KindField))
}

func TestSet_PutOverridesInPlace(t *testing.T) {
	t.Parallel()

	set := template.NewSet()
	require.NoError(t, set.Add(template.KindMethod, template.NewEntry(template.KindMethod, "a", "a", "old", false)))
	require.NoError(t, set.Add(template.KindMethod, template.NewEntry(template.KindMethod, "b", "b", "", false)))

	require.NoError(t, set.Put(template.KindMethod, template.NewEntry(template.KindMethod, "a", "a", "new", false)))
	require.NoError(t, set.Put(template.KindMethod, template.NewEntry(template.KindMethod, "c", "c", "", false)))

	entries := set.Entries(template.KindMethod)
	require.Len(t, entries, 3)
	assert.Equal(t, "new", entries[0].Body)
	assert.Equal(t, "b", entries[1].Name)
	assert.Equal(t, "c", entries[2].Name)
	assert.Same(t, entries[0], set.Find(template.KindMethod, "a"))
}

func TestSet_Remove(t *testing.T) {
	t.Parallel()

	set := template.NewSet()
	require.NoError(t, set.Add(template.KindField, template.NewEntry(template.KindField, "a", "a", "", false)))

	assert.True(t, set.Remove(template.KindField, "a"))
	assert.False(t, set.Remove(template.KindField, "a"))
	assert.Nil(t, set.Find(template.KindField, "a"))
}

func TestSet_WalkDepth(t *testing.T) {
	t.Parallel()

	set := template.NewSet()
	parent := template.NewEntry(template.KindType, "p", ".*", "", false)
	require.NoError(t, parent.AddChild(template.KindField, template.NewEntry(template.KindField, "c", ".*", "", false)))
	require.NoError(t, set.Add(template.KindType, parent))

	var visited []string

	err := set.Walk(func(entry *template.Entry, depth int) error {
		visited = append(visited, entry.Name+":"+string(rune('0'+depth)))

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p:0", "c:1"}, visited)
}

func TestSet_ValidateJoinsNestedErrors(t *testing.T) {
	t.Parallel()

	set := template.NewSet()
	parent := template.NewEntry(template.KindType, "p", "[", "", false)
	require.NoError(t, parent.AddChild(template.KindMethod, template.NewEntry(template.KindMethod, "c", "(", "", false)))
	require.NoError(t, set.Add(template.KindType, parent))
	require.NoError(t, set.Add(template.KindField, template.NewEntry(template.KindField, "ok", "x", "", false)))

	err := set.Validate()
	require.ErrorIs(t, err, template.ErrPattern)
	assert.Contains(t, err.Error(), `"p"`)
	assert.Contains(t, err.Error(), `"c"`)
}
