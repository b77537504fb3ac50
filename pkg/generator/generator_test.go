package generator_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autodoc/pkg/generator"
	"github.com/Sumatoshi-tech/autodoc/pkg/javasrc"
	"github.com/Sumatoshi-tech/autodoc/pkg/replacer"
	"github.com/Sumatoshi-tech/autodoc/pkg/template"
)

const userService = `public class UserService {
    private int count;

    /**
     * Old text.
     */
    public User getUser(String id) throws NotFoundException {
        return null;
    }

    void saveUser(User user) {
    }
}
`

func testRules(t *testing.T, withFields bool) *template.Set {
	t.Helper()

	set := template.NewSet()

	service := template.NewEntry(template.KindType, "service", `(\w+)Service`, `Service for {{ .Group 1 | lower }} records.`, false)
	require.NoError(t, service.AddChild(template.KindMethod,
		template.NewEntry(template.KindMethod, "save", `save(\w+)`, `Saves the {{ .Group 1 | lower }}.`, false)))

	require.NoError(t, set.Add(template.KindType, service))
	require.NoError(t, set.Add(template.KindType, template.NewEntry(template.KindType, "type", `.*`, `The {{ .Name }} type.`, false)))

	if withFields {
		require.NoError(t, set.Add(template.KindField,
			template.NewEntry(template.KindField, "field", `.*`, `The {{ .Words | lowerWords | join }}.`, false)))
	}

	require.NoError(t, set.Add(template.KindMethod,
		template.NewEntry(template.KindMethod, "getter", `get(\w+)`, `Gets the {{ .Group 1 | split | lowerWords | join }}.`, false)))
	require.NoError(t, set.Add(template.KindParameter,
		template.NewEntry(template.KindParameter, "param", `.*`, `the {{ .Words | replace | lowerWords | join }}`, false)))
	require.NoError(t, set.Add(template.KindException,
		template.NewEntry(template.KindException, "exception", `.*`, `if it fails`, false)))

	return set
}

func testReplacer() *replacer.Replacer {
	return replacer.New([]replacer.Rule{
		{Shortcut: "id", Replacement: "identifier", Scope: replacer.ScopeBoth, Mode: replacer.ModeAll},
	})
}

func newGenerator(t *testing.T, mutate func(*generator.Options)) *generator.Generator {
	t.Helper()

	opts := generator.DefaultOptions()
	opts.Workers = 2

	if mutate != nil {
		mutate(&opts)
	}

	return generator.New(testRules(t, true), testReplacer(), opts)
}

func TestGenerate_CompleteAddsMissingComments(t *testing.T) {
	t.Parallel()

	result, err := newGenerator(t, nil).Generate(context.Background(), "UserService.java", []byte(userService))
	require.NoError(t, err)

	want := `/**
 * Service for user records.
 */
public class UserService {
    /**
     * The count.
     */
    private int count;

    /**
     * Old text.
     */
    public User getUser(String id) throws NotFoundException {
        return null;
    }

    /**
     * Saves the user.
     *
     * @param user the user
     */
    void saveUser(User user) {
    }
}
`

	assert.Equal(t, want, string(result.Output))
	assert.True(t, result.Stale)
	assert.Equal(t, 3, result.Count(generator.ActionAdd))
	assert.Equal(t, 1, result.Count(generator.ActionKeep))
}

func TestGenerate_ReplaceRegeneratesStaleComments(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, func(o *generator.Options) { o.Mode = generator.ModeReplace })

	result, err := g.Generate(context.Background(), "UserService.java", []byte(userService))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count(generator.ActionReplace))
	assert.Contains(t, string(result.Output), `    /**
     * Gets the user.
     *
     * @param id the identifier
     * @throws NotFoundException if it fails
     */
    public User getUser(String id)`)
	assert.NotContains(t, string(result.Output), "Old text.")

	again, err := g.Generate(context.Background(), "UserService.java", result.Output)
	require.NoError(t, err)
	assert.False(t, again.Stale)
	assert.Equal(t, 4, again.Count(generator.ActionKeep))
}

func TestGenerate_ReplaceInlineJavadoc(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, func(o *generator.Options) { o.Mode = generator.ModeReplace })

	src := "class Counter {\n    /** Old. */ private int count;\n}\n"

	result, err := g.Generate(context.Background(), "Counter.java", []byte(src))
	require.NoError(t, err)

	want := `/**
 * The Counter type.
 */
class Counter {
    /**
     * The count.
     */
    private int count;
}
`
	assert.Equal(t, want, string(result.Output))
	assert.Equal(t, 1, result.Count(generator.ActionReplace))

	again, err := g.Generate(context.Background(), "Counter.java", result.Output)
	require.NoError(t, err)
	assert.False(t, again.Stale)
	assert.Equal(t, want, string(again.Output))
}

func TestGenerate_KeepLeavesSourceUntouched(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, func(o *generator.Options) { o.Mode = generator.ModeKeep })

	result, err := g.Generate(context.Background(), "UserService.java", []byte(userService))
	require.NoError(t, err)

	assert.Equal(t, userService, string(result.Output))
	assert.False(t, result.Stale)
	assert.Equal(t, 4, result.Count(generator.ActionKeep))
}

func TestGenerate_VisibilityFilter(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, func(o *generator.Options) { o.MinVisibility = javasrc.VisibilityPublic })

	result, err := g.Generate(context.Background(), "UserService.java", []byte(userService))
	require.NoError(t, err)

	names := make([]string, 0, len(result.Comments))
	for _, c := range result.Comments {
		names = append(names, c.Decl.Name())
	}

	assert.Equal(t, []string{"UserService", "getUser"}, names)
}

func TestGenerate_WithoutTags(t *testing.T) {
	t.Parallel()

	g := newGenerator(t, func(o *generator.Options) {
		o.Tags = false
		o.Mode = generator.ModeReplace
	})

	result, err := g.Generate(context.Background(), "UserService.java", []byte(userService))
	require.NoError(t, err)
	assert.NotContains(t, string(result.Output), "@param")
}

func TestGenerate_UnmatchedDeclarations(t *testing.T) {
	t.Parallel()

	g := generator.New(testRules(t, false), testReplacer(), generator.DefaultOptions())

	result, err := g.Generate(context.Background(), "UserService.java", []byte(userService))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count(generator.ActionUnmatched))
	assert.NotContains(t, string(result.Output), "The count.")
}

func TestGenerate_InvalidPatternFails(t *testing.T) {
	t.Parallel()

	set := template.NewSet()
	require.NoError(t, set.Add(template.KindType, template.NewEntry(template.KindType, "broken", `(`, "x", false)))

	_, err := generator.New(set, nil, generator.DefaultOptions()).
		Generate(context.Background(), "A.java", []byte("class A {}\n"))
	require.ErrorIs(t, err, template.ErrPattern)
}

func TestGenerate_SameLineDeclaratorsShareOneComment(t *testing.T) {
	t.Parallel()

	result, err := newGenerator(t, nil).Generate(context.Background(), "A.java",
		[]byte("class A {\n  int width, height;\n}\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(string(result.Output), "The width."))
	assert.NotContains(t, string(result.Output), "The height.")
}

func TestCheck_ReportsMissingAndStale(t *testing.T) {
	t.Parallel()

	findings, err := newGenerator(t, nil).Check(context.Background(), "UserService.java", []byte(userService))
	require.NoError(t, err)
	require.Len(t, findings, 4)

	stale := findings[2]
	assert.Equal(t, generator.FindingStale, stale.Kind)
	assert.Equal(t, "UserService.getUser", stale.Name)
	assert.Equal(t, 7, stale.Line)
	assert.Contains(t, stale.Diff, "-Old text.\n")
	assert.Contains(t, stale.Diff, "+Gets the user.\n")

	assert.Equal(t, generator.FindingMissing, findings[3].Kind)
	assert.Equal(t, "save", findings[3].Rule)
}

func TestLineDiff(t *testing.T) {
	t.Parallel()

	assert.Equal(t, " a\n-b\n+c\n", generator.LineDiff("a\nb", "a\nc"))
	assert.Equal(t, " same\n", generator.LineDiff("same", "same"))
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	mode, err := generator.ParseMode("Replace")
	require.NoError(t, err)
	assert.Equal(t, generator.ModeReplace, mode)
	assert.Equal(t, "replace", mode.String())

	_, err = generator.ParseMode("overwrite")
	require.ErrorIs(t, err, generator.ErrUnknownMode)
	assert.NotContains(t, err.Error(), "did you mean")

	_, err = generator.ParseMode("complet")
	require.ErrorIs(t, err, generator.ErrUnknownMode)
	assert.Contains(t, err.Error(), `did you mean "complete"?`)
}

func TestRun_WritesJavaFilesAndSkipsOthers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	javaPath := filepath.Join(dir, "src", "UserService.java")
	vendored := filepath.Join(dir, "vendor", "Lib.java")
	notes := filepath.Join(dir, "notes.txt")
	big := filepath.Join(dir, "Big.java")

	require.NoError(t, os.MkdirAll(filepath.Dir(javaPath), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(vendored), 0o755))
	require.NoError(t, os.WriteFile(javaPath, []byte(userService), 0o600))
	require.NoError(t, os.WriteFile(vendored, []byte("class Lib {}\n"), 0o600))
	require.NoError(t, os.WriteFile(notes, []byte("just text\n"), 0o600))
	require.NoError(t, os.WriteFile(big, []byte("class Big {}\n"+strings.Repeat("// pad\n", 200)), 0o600))

	g := newGenerator(t, func(o *generator.Options) { o.MaxFileSize = 1024 })

	summary, err := g.Run(context.Background(), []string{filepath.Join(dir, "src"), filepath.Join(dir, "vendor"), notes, big}, true)
	require.NoError(t, err)

	paths := make([]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		paths = append(paths, r.Path)
	}

	assert.Equal(t, []string{javaPath, vendored}, paths)
	assert.Equal(t, 4, summary.Total(generator.ActionAdd))
	require.Len(t, summary.Skipped, 2)

	written, err := os.ReadFile(javaPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "Service for user records.")
}

func TestRun_SkipsVendorDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "Lib.java"), []byte("class Lib {}\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "App.java"), []byte("class App {}\n"), 0o600))

	summary, err := newGenerator(t, nil).Run(context.Background(), []string{dir}, false)
	require.NoError(t, err)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, filepath.Join(dir, "App.java"), summary.Results[0].Path)

	untouched, err := os.ReadFile(filepath.Join(dir, "App.java"))
	require.NoError(t, err)
	assert.Equal(t, "class App {}\n", string(untouched))
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "App.java"), []byte("class App {}\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newGenerator(t, nil).Run(ctx, []string{dir}, false)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheckAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "UserService.java"), []byte(userService), 0o600))

	files, err := newGenerator(t, nil).CheckAll(context.Background(), []string{dir})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Len(t, files[0].Findings, 4)
}
