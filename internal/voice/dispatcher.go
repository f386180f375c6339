// Package voice bridges the phone agent to the scheduling engine. The
// agent invokes named tools with JSON arguments; the bridge dispatches
// them and always answers with a structured result, so a bad tool call
// degrades into something the agent can say out loud instead of a dropped
// call.
package voice

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"

	"github.com/opencourt/receptionist/pkg/logging"
)

var tracer = otel.Tracer("receptionist.internal.voice")

// ToolFunc executes one named tool. Arguments arrive as raw JSON from the
// agent; the returned value is serialized back as the tool result.
type ToolFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Dispatcher routes tool calls by name. Registration happens at startup;
// Dispatch is safe for concurrent use afterwards.
type Dispatcher struct {
	tools  map[string]ToolFunc
	logger *logging.Logger
}

func NewDispatcher(logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{tools: make(map[string]ToolFunc), logger: logger}
}

// Register binds a tool name to its implementation. Re-registering a name
// replaces the previous binding.
func (d *Dispatcher) Register(name string, fn ToolFunc) {
	d.tools[name] = fn
}

// Names lists the registered tool names.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	return names
}

// Dispatch runs the named tool and returns its result as JSON. Errors are
// folded into an {"error": ...} payload rather than returned: the agent
// needs a speakable answer for every call, including calls to tools that
// do not exist.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args json.RawMessage) json.RawMessage {
	ctx, span := tracer.Start(ctx, "voice.Dispatch")
	defer span.End()

	fn, ok := d.tools[name]
	if !ok {
		d.logger.Warn("unknown voice tool requested", "tool", name)
		return errorPayload(fmt.Sprintf("unknown tool %q", name))
	}

	result, err := fn(ctx, args)
	if err != nil {
		span.RecordError(err)
		d.logger.Warn("voice tool failed", "tool", name, "error", err)
		return errorPayload(err.Error())
	}

	data, err := json.Marshal(result)
	if err != nil {
		span.RecordError(err)
		d.logger.Error("voice tool result not serializable", "tool", name, "error", err)
		return errorPayload("internal error")
	}
	return data
}

func errorPayload(msg string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return data
}
