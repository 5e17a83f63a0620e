package tool

import (
	"github.com/hupe1980/teambrain/internal/util"
)

// Func is the handler signature for function-backed tools.
type Func func(tctx Context, args map[string]any) (any, error)

// FunctionTool adapts a plain function into a Tool, validating arguments
// against a declared schema before invocation.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          Func
}

var _ Tool = (*FunctionTool)(nil)

// NewFunctionTool wraps fn as a tool. The schema should come from
// util.ObjectSchema or an equivalent JSON-schema object map.
func NewFunctionTool(name, description string, parameters map[string]any, fn Func) *FunctionTool {
	if parameters == nil {
		parameters = util.ObjectSchema(nil)
	}
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// Name implements Tool.
func (t *FunctionTool) Name() string { return t.name }

// Description implements Tool.
func (t *FunctionTool) Description() string { return t.description }

// Parameters implements Tool.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Execute implements Tool.
func (t *FunctionTool) Execute(tctx Context, args map[string]any) (any, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		return nil, NewError(t.name, CodeInvalidArguments, "%s", err.Error())
	}
	return t.fn(tctx, args)
}
