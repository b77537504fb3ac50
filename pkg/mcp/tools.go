package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/autodoc/pkg/generator"
	"github.com/Sumatoshi-tech/autodoc/pkg/javasrc"
	"github.com/Sumatoshi-tech/autodoc/pkg/replacer"
	"github.com/Sumatoshi-tech/autodoc/pkg/ruleset"
	"github.com/Sumatoshi-tech/autodoc/pkg/textutil"
)

// Tool name constants.
const (
	ToolNameGenerate = "autodoc_generate"
	ToolNameCheck    = "autodoc_check"
	ToolNameSplit    = "autodoc_split"
)

// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
const MaxCodeInputBytes = 1 << 20

const syntheticFilename = "Input.java"

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrEmptyIdentifier indicates the identifier parameter is empty.
	ErrEmptyIdentifier = errors.New("identifier parameter is required and must not be empty")
)

// GenerateInput is the input schema for the autodoc_generate tool.
type GenerateInput struct {
	Code       string `json:"code"                 jsonschema:"Java source code to document"`
	Mode       string `json:"mode,omitempty"       jsonschema:"complete, replace or keep (default: complete)"`
	Visibility string `json:"visibility,omitempty" jsonschema:"lowest documented visibility: private, package, protected or public"`
}

// CheckInput is the input schema for the autodoc_check tool.
type CheckInput struct {
	Code       string `json:"code"                 jsonschema:"Java source code to check"`
	Visibility string `json:"visibility,omitempty" jsonschema:"lowest checked visibility: private, package, protected or public"`
}

// SplitInput is the input schema for the autodoc_split tool.
type SplitInput struct {
	Identifier string `json:"identifier"        jsonschema:"Java identifier such as getIDFromProdukt"`
	Replace    string `json:"replace,omitempty" jsonschema:"apply keyword replacements for a field or method name"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// DeclComment is one generated comment in a generate response.
type DeclComment struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Rule   string `json:"rule,omitempty"`
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
	Line   int    `json:"line"`
}

// GenerateOutput is the autodoc_generate response.
type GenerateOutput struct {
	Source   string        `json:"source"`
	Comments []DeclComment `json:"comments"`
	Changed  bool          `json:"changed"`
}

// SplitOutput is the autodoc_split response.
type SplitOutput struct {
	Text  string   `json:"text"`
	Words []string `json:"words"`
}

type toolset struct {
	rules *ruleset.RuleSet
	opts  generator.Options
}

func (ts *toolset) generator(mode, visibility string) (*generator.Generator, error) {
	opts := ts.opts

	if mode != "" {
		parsed, err := generator.ParseMode(mode)
		if err != nil {
			return nil, err
		}

		opts.Mode = parsed
	}

	if visibility != "" {
		parsed, err := javasrc.ParseVisibility(visibility)
		if err != nil {
			return nil, err
		}

		opts.MinVisibility = parsed
	}

	return generator.New(ts.rules.Templates, ts.rules.Replacer(), opts), nil
}

func (ts *toolset) handleGenerate(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input GenerateInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCode(input.Code)
	if err != nil {
		return errorResult(err)
	}

	gen, err := ts.generator(input.Mode, input.Visibility)
	if err != nil {
		return errorResult(err)
	}

	result, err := gen.Generate(ctx, syntheticFilename, []byte(input.Code))
	if err != nil {
		return errorResult(err)
	}

	out := GenerateOutput{
		Source:   string(result.Output),
		Comments: make([]DeclComment, 0, len(result.Comments)),
		Changed:  result.Stale,
	}

	for _, c := range result.Comments {
		out.Comments = append(out.Comments, DeclComment{
			Name:   c.Decl.QualifiedName(),
			Kind:   c.Decl.Kind().String(),
			Rule:   c.Rule,
			Action: c.Action.String(),
			Text:   c.Text,
			Line:   c.Decl.Line,
		})
	}

	return jsonResult(out)
}

func (ts *toolset) handleCheck(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input CheckInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateCode(input.Code)
	if err != nil {
		return errorResult(err)
	}

	gen, err := ts.generator("", input.Visibility)
	if err != nil {
		return errorResult(err)
	}

	findings, err := gen.Check(ctx, syntheticFilename, []byte(input.Code))
	if err != nil {
		return errorResult(err)
	}

	if findings == nil {
		findings = []generator.Finding{}
	}

	return jsonResult(findings)
}

func (ts *toolset) handleSplit(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input SplitInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Identifier == "" {
		return errorResult(ErrEmptyIdentifier)
	}

	words := textutil.Split(input.Identifier)

	if input.Replace != "" {
		scope, err := replacer.ParseScope(input.Replace)
		if err != nil {
			return errorResult(err)
		}

		words = ts.rules.Replacer().Apply(words, scope)
	}

	return jsonResult(SplitOutput{
		Text:  textutil.JoinWords(words),
		Words: words,
	})
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func validateCode(code string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}
