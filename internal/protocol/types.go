package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Reserved actions answered by the bridge itself.
const (
	ActionPing        = "ping"
	ActionHealthCheck = "health_check"
)

// Request is one decoded client frame: an action name plus its named parameters.
type Request struct {
	Action string
	Params Params
}

// Result is the reply to exactly one Request.
// On the wire it is a flat object with "ok" first, "error" second when
// present, then Fields in key order.
type Result struct {
	OK     bool
	Error  string
	Fields map[string]any
}

// OK builds a successful Result from alternating key/value pairs.
func OK(kv ...any) Result {
	r := Result{OK: true}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		r = r.With(key, kv[i+1])
	}
	return r
}

// Fail builds an error Result.
func Fail(msg string) Result {
	return Result{OK: false, Error: msg}
}

// Failf builds an error Result with a formatted message.
func Failf(format string, args ...any) Result {
	return Fail(fmt.Sprintf(format, args...))
}

// With returns a copy of r with one extra field set.
func (r Result) With(key string, value any) Result {
	fields := make(map[string]any, len(r.Fields)+1)
	for k, v := range r.Fields {
		fields[k] = v
	}
	fields[key] = value
	r.Fields = fields
	return r
}

// Get returns a field value.
func (r Result) Get(key string) (any, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// MarshalJSON writes the flat wire form. Fields named ok or error are dropped
// so they can never contradict the top-level values.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"ok":`)
	if r.OK {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}

	if !r.OK {
		msg, err := json.Marshal(r.Error)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`,"error":`)
		buf.Write(msg)
	}

	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		if k == "ok" || k == "error" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Fields[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses the flat wire form. Numbers are kept as json.Number.
func (r *Result) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil {
		return err
	}

	ok, isBool := raw["ok"].(bool)
	if !isBool {
		return fmt.Errorf("result missing boolean field: ok")
	}
	r.OK = ok
	r.Error = ""
	if msg, has := raw["error"]; has {
		s, isStr := msg.(string)
		if !isStr {
			return fmt.Errorf("result field error must be a string")
		}
		r.Error = s
	}

	delete(raw, "ok")
	delete(raw, "error")
	r.Fields = nil
	if len(raw) > 0 {
		r.Fields = raw
	}
	return nil
}
