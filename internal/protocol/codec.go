package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DecodeRequest parses one frame into a Request.
// The frame must be a single JSON object. A missing action decodes as the
// empty string and is left for the dispatcher to reject; a non-string action
// is a decode error.
func DecodeRequest(frame []byte) (*Request, error) {
	obj, err := decodeObject(frame)
	if err != nil {
		return nil, err
	}

	req := &Request{Params: Params(obj)}
	if raw, ok := obj["action"]; ok {
		action, isStr := raw.(string)
		if !isStr {
			return nil, fmt.Errorf("field action must be a string")
		}
		req.Action = action
	}
	delete(obj, "action")
	return req, nil
}

// MarshalJSON writes the request frame: action plus the params flattened beside it.
func (r Request) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Params)+1)
	for k, v := range r.Params {
		out[k] = v
	}
	out["action"] = r.Action
	return json.Marshal(out)
}

// EncodeRequest writes req as one newline-terminated frame.
func EncodeRequest(w io.Writer, req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return writeFrame(w, data)
}

// Encodable returns res unchanged when it marshals. Otherwise it returns a
// failure Result naming the marshal error, along with that error.
func Encodable(res Result) (Result, error) {
	if _, err := res.MarshalJSON(); err != nil {
		return Failf("Failed to encode result: %v", err), err
	}
	return res, nil
}

// EncodeResult writes res as one newline-terminated frame.
func EncodeResult(w io.Writer, res Result) error {
	data, err := res.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return writeFrame(w, data)
}

// DecodeResult parses one response frame.
func DecodeResult(frame []byte) (Result, error) {
	var res Result
	if err := res.UnmarshalJSON(bytes.TrimSpace(frame)); err != nil {
		return Result{}, err
	}
	return res, nil
}

func writeFrame(w io.Writer, data []byte) error {
	frame := make([]byte, 0, len(data)+1)
	frame = append(frame, data...)
	frame = append(frame, '\n')
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON object")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return obj, nil
}
