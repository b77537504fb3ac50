package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/autodoc/pkg/generator"
	"github.com/Sumatoshi-tech/autodoc/pkg/mcp"
)

const productSource = `public class Product {
    private String name;

    public String getName() {
        return name;
    }
}
`

func connect(t *testing.T, srv *mcp.Server) *mcpsdk.ClientSession {
	t.Helper()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- srv.RunWithTransport(ctx, serverTransport)
	}()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()

		cancel()
		<-serverDone
	})

	return session
}

func callTool(t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	return result
}

func textOf(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()

	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestMCPServer_ListTools(t *testing.T) {
	t.Parallel()

	srv := mcp.NewServer(mcp.ServerDeps{})
	assert.Equal(t, []string{mcp.ToolNameCheck, mcp.ToolNameGenerate, mcp.ToolNameSplit}, srv.ListToolNames())

	session := connect(t, srv)

	toolsResult, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	toolNames := make([]string, 0, len(toolsResult.Tools))
	for _, tool := range toolsResult.Tools {
		toolNames = append(toolNames, tool.Name)
		assert.NotNil(t, tool.InputSchema, "tool %s missing input schema", tool.Name)
	}

	assert.ElementsMatch(t, srv.ListToolNames(), toolNames)
}

func TestMCPServer_Generate(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameGenerate, map[string]any{"code": productSource})
	require.False(t, result.IsError, textOf(t, result))

	var out mcp.GenerateOutput
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))

	assert.True(t, out.Changed)
	assert.Contains(t, out.Source, "/**\n * The Class Product.\n */\npublic class Product {")
	assert.Contains(t, out.Source, "    /**\n     * Gets the name.\n")
	require.Len(t, out.Comments, 3)
	assert.Equal(t, "Product", out.Comments[0].Name)
	assert.Equal(t, "added", out.Comments[0].Action)
	assert.Equal(t, "Product.getName", out.Comments[2].Name)
	assert.Equal(t, "getter", out.Comments[2].Rule)
}

func TestMCPServer_GenerateVisibility(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameGenerate, map[string]any{
		"code":       productSource,
		"visibility": "public",
	})
	require.False(t, result.IsError, textOf(t, result))

	var out mcp.GenerateOutput
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))

	require.Len(t, out.Comments, 2)
	assert.NotContains(t, out.Source, "The name.")
}

func TestMCPServer_GenerateErrors(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameGenerate, map[string]any{"code": ""})
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), mcp.ErrEmptyCode.Error())

	result = callTool(t, session, mcp.ToolNameGenerate, map[string]any{"code": productSource, "mode": "rewrite"})
	assert.True(t, result.IsError)
}

func TestMCPServer_Check(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameCheck, map[string]any{"code": productSource})
	require.False(t, result.IsError, textOf(t, result))

	var findings []generator.Finding
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &findings))

	require.Len(t, findings, 3)

	for _, f := range findings {
		assert.Equal(t, generator.FindingMissing, f.Kind)
	}
}

func TestMCPServer_Split(t *testing.T) {
	t.Parallel()

	session := connect(t, mcp.NewServer(mcp.ServerDeps{}))

	result := callTool(t, session, mcp.ToolNameSplit, map[string]any{"identifier": "getIDFromProdukt"})
	require.False(t, result.IsError, textOf(t, result))

	var out mcp.SplitOutput
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))
	assert.Equal(t, []string{"get", "ID", "From", "Produkt"}, out.Words)

	result = callTool(t, session, mcp.ToolNameSplit, map[string]any{"identifier": "findMsg", "replace": "method"})
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &out))
	assert.Equal(t, "Finds the message", out.Text)

	result = callTool(t, session, mcp.ToolNameSplit, map[string]any{"identifier": ""})
	assert.True(t, result.IsError)
}
