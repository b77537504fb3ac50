package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autodoc/pkg/template"
)

const productSource = `package shop;

public class Product {
    private String name;

    public String getName() {
        return name;
    }

    public void setName(String name) {
        this.name = name;
    }
}
`

// execute runs the CLI with args and returns its combined output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	rootCmd := newRootCmd()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return buf.String(), err
}

func writeProduct(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "Product.java")
	require.NoError(t, os.WriteFile(path, []byte(productSource), 0o600))

	return dir, path
}

func TestCLI_HelpAndSubcommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantOut string
		args    []string
		wantErr bool
	}{
		{wantOut: "autodoc generates Javadoc comments", args: []string{"--help"}},
		{wantOut: "Generate Javadoc comments for every Java file", args: []string{"generate", "--help"}},
		{wantOut: "Exits non-zero when any comment is missing or stale", args: []string{"check", "--help"}},
		{wantOut: "Validate a rule file", args: []string{"rules", "--help"}},
		{wantOut: "autodoc_generate", args: []string{"mcp", "--help"}},
		{wantOut: "autodoc dev", args: []string{"version"}},
		{wantOut: "unknown command", args: []string{"unknown"}, wantErr: true},
	}

	for _, tc := range tests {
		out, err := execute(t, "", tc.args...)

		if tc.wantErr {
			require.Error(t, err, "args %v", tc.args)
			assert.Contains(t, err.Error(), tc.wantOut)

			continue
		}

		require.NoError(t, err, "args %v", tc.args)
		assert.Contains(t, out, tc.wantOut, "args %v", tc.args)
	}
}

func TestCLI_Split(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "", "split", "getIDFromProdukt", "MAX_VALUE")
	require.NoError(t, err)
	assert.Equal(t, "get ID From Produkt\nMAX VALUE\n", out)

	out, err = execute(t, "", "split", "--replace", "method", "findMsg")
	require.NoError(t, err)
	assert.Equal(t, "Finds the message\n", out)

	out, err = execute(t, "", "split", "--format", "json", "maxCnt")
	require.NoError(t, err)

	var parsed []splitOutput
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	require.Len(t, parsed, 1)
	assert.Equal(t, []string{"max", "Cnt"}, parsed[0].Words)

	_, err = execute(t, "", "split", "--replace", "class", "x")
	require.Error(t, err)
}

func TestCLI_GenerateDryRunThenWrite(t *testing.T) {
	t.Parallel()

	dir, path := writeProduct(t)

	out, err := execute(t, "", "generate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Product.java")
	assert.Contains(t, out, "1 files would change")

	unchanged, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, productSource, string(unchanged))

	out, err = execute(t, "", "generate", "--write", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 1 files.")

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "    /**\n     * Gets the name.\n")
	assert.Contains(t, string(written), "     * @param name the name\n")

	out, err = execute(t, "", "check", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "All comments are up to date.")
}

func TestCLI_GenerateJSON(t *testing.T) {
	t.Parallel()

	dir, _ := writeProduct(t)

	out, err := execute(t, "", "generate", "--format", "json", "--visibility", "public", dir)
	require.NoError(t, err)

	var summary struct {
		Results []struct {
			Path     string `json:"path"`
			Comments []struct {
				Rule   string `json:"rule"`
				Action string `json:"action"`
			} `json:"comments"`
			Changed bool `json:"changed"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Results, 1)
	assert.True(t, summary.Results[0].Changed)
	require.Len(t, summary.Results[0].Comments, 3)
	assert.Equal(t, "class", summary.Results[0].Comments[0].Rule)
	assert.Equal(t, "added", summary.Results[0].Comments[0].Action)
}

func TestCLI_GenerateStdin(t *testing.T) {
	t.Parallel()

	out, err := execute(t, productSource, "generate", "--no-tags", "-")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "package shop;\n\n/**\n * The Class Product.\n */\npublic class Product {"))
	assert.NotContains(t, out, "@param")
}

func TestCLI_CheckReportsFindings(t *testing.T) {
	t.Parallel()

	dir, _ := writeProduct(t)

	out, err := execute(t, "", "check", dir)
	require.ErrorIs(t, err, errFindings)
	assert.Contains(t, out, "missing Javadoc for Product.getName (getter)")
	assert.Contains(t, out, "4 missing, 0 stale in 1 files")
}

func TestCLI_CheckJSON(t *testing.T) {
	t.Parallel()

	dir, _ := writeProduct(t)

	out, err := execute(t, "", "check", "--format", "json", "--visibility", "public", dir)
	require.ErrorIs(t, err, errFindings)

	var files []struct {
		Path     string `json:"path"`
		Findings []struct {
			Kind string `json:"kind"`
			Name string `json:"name"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 1)
	assert.Len(t, files[0].Findings, 3)
}

func TestCLI_RulesExportAndValidate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.yaml")

	out, err := execute(t, "", "rules", "export", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	out, err = execute(t, "", "rules", "validate", "--list", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
	assert.Contains(t, out, "boolean-getter")
	assert.Contains(t, out, "  test-method")

	out, err = execute(t, "", "rules", "export", "--format", "json")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "templates")
	assert.Contains(t, doc, "replacements")
}

func TestCLI_RulesValidateRejectsBadPattern(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`version: 1
templates:
  field:
    - name: broken
      pattern: '(unclosed'
      body: 'x'
`), 0o600))

	_, err := execute(t, "", "rules", "validate", path)
	require.ErrorIs(t, err, template.ErrPattern)
}

func TestCLI_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "", "split", "--format", "xml", "x")
	require.ErrorIs(t, err, ErrUnknownFormat)
}
