package tool

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/teambrain/internal/util"
	"github.com/hupe1980/teambrain/model"
)

// identityProps are schema property names the registry overwrites with the
// caller's resolved identity before execution. Tools opt in by declaring
// them in their parameter schema; model-supplied values are discarded.
var identityProps = map[string]func(tctx Context) string{
	"user_id":   func(tctx Context) string { return tctx.Identity.UserID },
	"team_id":   func(tctx Context) string { return tctx.Identity.TeamID },
	"user_name": func(tctx Context) string { return tctx.Identity.DisplayName },
}

// Registry holds the tools available to the model loop. Safe for concurrent
// use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any previous tool of the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the tool declarations advertised to the model, sorted
// by name for stable prompts.
func (r *Registry) Definitions() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]model.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute decodes a tool call's arguments, injects the caller identity into
// declared identity properties, and runs the tool. Failures, including
// panics inside the tool, come back as *Error so the caller can feed an
// error envelope to the model instead of aborting.
func (r *Registry) Execute(tctx Context, name, rawArgs string) (result any, err error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, NewError(name, CodeUnknownTool, "no tool named %q is registered", name)
	}

	args := map[string]any{}
	if rawArgs != "" {
		if jsonErr := json.Unmarshal([]byte(rawArgs), &args); jsonErr != nil {
			return nil, NewError(name, CodeInvalidArguments, "arguments are not valid JSON: %s", jsonErr)
		}
	}

	declared := util.SchemaProperties(t.Parameters())
	for prop, value := range identityProps {
		if declared[prop] {
			args[prop] = value(tctx)
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = NewError(name, CodeInternal, "panic: %v", rec)
		}
	}()

	result, err = t.Execute(tctx, args)
	if err != nil {
		var terr *Error
		if errors.As(err, &terr) {
			return nil, terr
		}
		return nil, NewError(name, CodeInternal, "%s", err.Error())
	}
	return result, nil
}

// MarshalResult serializes a tool result (or structured error) to the string
// fed back to the model.
func MarshalResult(result any, err error) string {
	if err != nil {
		var terr *Error
		if !errors.As(err, &terr) {
			terr = &Error{Code: CodeInternal, Message: err.Error()}
		}
		raw, _ := json.Marshal(map[string]any{"error": terr})
		return string(raw)
	}
	switch v := result.(type) {
	case nil:
		return `{"ok":true}`
	case string:
		return v
	default:
		raw, jsonErr := json.Marshal(v)
		if jsonErr != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}
