package protocol

import (
	"encoding/json"
	"fmt"
	"math"
)

// Params holds a request's named parameters as decoded from the frame.
// Numbers are json.Number so integers survive untouched.
type Params map[string]any

// String returns p[key] as a string, or def when absent.
func (p Params) String(key, def string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return def, fmt.Errorf("parameter %s must be a string", key)
	}
	return s, nil
}

// Int returns p[key] as an int, or def when absent.
// Integral floats such as 3.0 are accepted.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
		f, err := n.Float64()
		if err != nil || f != float64(int(f)) {
			return def, fmt.Errorf("parameter %s must be an integer", key)
		}
		return int(f), nil
	case float64:
		if n != float64(int(n)) {
			return def, fmt.Errorf("parameter %s must be an integer", key)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return def, fmt.Errorf("parameter %s must be an integer", key)
	}
}

// Float returns p[key] as a float64, or def when absent.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return def, fmt.Errorf("parameter %s must be a number", key)
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return def, fmt.Errorf("parameter %s must be a number", key)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def, fmt.Errorf("parameter %s must be a finite number", key)
	}
	return f, nil
}

// Bool returns p[key] as a bool, or def when absent.
func (p Params) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, fmt.Errorf("parameter %s must be a boolean", key)
	}
	return b, nil
}

// Slice returns p[key] as a list, or nil when absent.
func (p Params) Slice(key string) ([]any, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("parameter %s must be a list", key)
	}
	return s, nil
}
