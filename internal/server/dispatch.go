package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CallRequest is one tool invocation. Args is the raw argument object and may be
// absent.
type CallRequest struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"arguments,omitempty"`
}

// Content is one item of a tool response.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResponse always holds exactly one text item: the JSON-encoded result, or
// {"error": message} with IsError set.
type CallResponse struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

type handler func(ctx context.Context, f *Facade, args json.RawMessage) (json.RawMessage, error)

// Dispatcher maps tool calls onto facade operations.
type Dispatcher struct {
	facade   *Facade
	handlers map[string]handler
	logger   *slog.Logger
}

// NewDispatcher returns a Dispatcher over f. A nil logger uses slog.Default().
func NewDispatcher(f *Facade, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		facade:   f,
		handlers: handlers(),
		logger:   logger,
	}
}

// Tools lists the catalog.
func (d *Dispatcher) Tools() []Tool { return Catalog() }

// Dispatch runs one tool call. It never fails: every error, including a panic
// below it, is returned as an error-shaped response.
func (d *Dispatcher) Dispatch(ctx context.Context, req CallRequest) CallResponse {
	callID := uuid.NewString()
	start := time.Now()

	result, err := d.call(ctx, req)

	log := d.logger.With("tool", req.Name, "call_id", callID, "duration", time.Since(start))
	if err != nil {
		log.Warn("tool call failed", "kind", KindOf(err), "error", err)
		return errorResponse(err)
	}
	resp, err := successResponse(result)
	if err != nil {
		log.Warn("tool result not encodable", "error", err)
		return errorResponse(err)
	}
	log.Info("tool call")
	return resp
}

func (d *Dispatcher) call(ctx context.Context, req CallRequest) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if isAbsent(req.Args) {
		return nil, validationError("No arguments provided")
	}
	tool, ok := lookupTool(req.Name)
	if !ok {
		return nil, unknownToolError(req.Name)
	}
	h, ok := d.handlers[req.Name]
	if !ok {
		return nil, unknownToolError(req.Name)
	}
	args, err := prepareArgs(tool, req.Args)
	if err != nil {
		return nil, err
	}
	return h(ctx, d.facade, args)
}

// prepareArgs checks required arguments against the tool's table and fills in
// defaults, returning the argument object ready to bind.
func prepareArgs(tool Tool, raw json.RawMessage) (json.RawMessage, error) {
	var bag map[string]json.RawMessage
	if err := json.Unmarshal(raw, &bag); err != nil {
		return nil, validationError("Arguments must be a JSON object")
	}
	if bag == nil {
		bag = map[string]json.RawMessage{}
	}

	var missing []string
	for _, a := range tool.Args() {
		v, present := bag[a.Name]
		if present && isAbsent(v) {
			delete(bag, a.Name)
			present = false
		}
		if a.Required && (!present || !isTruthy(a.Type, v)) {
			missing = append(missing, a.Name)
			continue
		}
		if !present && a.Default != nil {
			def, err := json.Marshal(a.Default)
			if err != nil {
				return nil, err
			}
			bag[a.Name] = def
		}
	}
	if len(missing) > 0 {
		return nil, validationError("Missing required fields: %s", strings.Join(missing, ", "))
	}
	return json.Marshal(bag)
}

func isAbsent(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

// isTruthy reports whether a present value satisfies a required argument.
// Numbers and booleans only have to be defined; zero is a valid id.
func isTruthy(t ArgType, raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch t {
	case TypeString:
		return !bytes.Equal(v, []byte(`""`))
	case TypeArray:
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err == nil {
			return len(items) > 0
		}
	}
	return true
}

// bind decodes the argument object into the tool's input type.
func bind[T any](fn func(ctx context.Context, f *Facade, in T) (json.RawMessage, error)) handler {
	return func(ctx context.Context, f *Facade, args json.RawMessage) (json.RawMessage, error) {
		var in T
		if err := json.Unmarshal(args, &in); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field != "" {
				return nil, validationError("Invalid argument %s: got %s, want %s", typeErr.Field, typeErr.Value, typeErr.Type)
			}
			return nil, validationError("Invalid arguments: %v", err)
		}
		return fn(ctx, f, in)
	}
}

func successResponse(result json.RawMessage) (CallResponse, error) {
	if result == nil {
		result = json.RawMessage("null")
	}
	text, err := json.Marshal(result)
	if err != nil {
		return CallResponse{}, fmt.Errorf("encode result: %w", err)
	}
	return CallResponse{Content: []Content{{Type: "text", Text: string(text)}}}, nil
}

func errorResponse(err error) CallResponse {
	text, mErr := json.Marshal(map[string]string{"error": err.Error()})
	if mErr != nil {
		text = []byte(`{"error":"internal error"}`)
	}
	return CallResponse{
		Content: []Content{{Type: "text", Text: string(text)}},
		IsError: true,
	}
}
