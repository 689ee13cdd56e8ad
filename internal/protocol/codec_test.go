package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr bool
		checkFn func(t *testing.T, req *Request)
	}{
		{
			name:  "ping",
			frame: `{"action":"ping"}`,
			checkFn: func(t *testing.T, req *Request) {
				assert.Equal(t, "ping", req.Action)
				assert.Empty(t, req.Params)
			},
		},
		{
			name:  "params keep numbers",
			frame: `{"action":"set_tempo","bpm":125,"name":"x"}`,
			checkFn: func(t *testing.T, req *Request) {
				assert.Equal(t, "set_tempo", req.Action)
				assert.Equal(t, json.Number("125"), req.Params["bpm"])
				assert.NotContains(t, req.Params, "action")
			},
		},
		{
			name:  "missing action decodes empty",
			frame: `{"bpm":1}`,
			checkFn: func(t *testing.T, req *Request) {
				assert.Equal(t, "", req.Action)
			},
		},
		{name: "truncated", frame: `{"action":"pi`, wantErr: true},
		{name: "array", frame: `[1,2]`, wantErr: true},
		{name: "scalar", frame: `42`, wantErr: true},
		{name: "non-string action", frame: `{"action":7}`, wantErr: true},
		{name: "trailing garbage", frame: `{"action":"ping"} x`, wantErr: true},
		{name: "two objects", frame: `{"action":"ping"}{"action":"ping"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := DecodeRequest([]byte(tt.frame))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.checkFn(t, req)
		})
	}
}

func TestResultWireOrder(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{
			name: "pong",
			res:  OK("message", "pong"),
			want: `{"ok":true,"message":"pong"}`,
		},
		{
			name: "error first then sorted fields",
			res:  Fail("Unknown action: foo").With("available_actions", []string{"a", "b"}),
			want: `{"ok":false,"error":"Unknown action: foo","available_actions":["a","b"]}`,
		},
		{
			name: "fields sorted",
			res:  OK("zeta", 1, "alpha", 2.5),
			want: `{"ok":true,"alpha":2.5,"zeta":1}`,
		},
		{
			name: "reserved field names ignored",
			res:  Result{OK: true, Fields: map[string]any{"ok": false, "error": "nope", "bpm": 125.0}},
			want: `{"ok":true,"bpm":125}`,
		},
		{
			name: "failure with empty message still carries error",
			res:  Result{},
			want: `{"ok":false,"error":""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.res)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestResultUnmarshalRoundTripsFields(t *testing.T) {
	res, err := DecodeResult([]byte(`{"ok":false,"error":"boom","code":3}` + "\n"))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "boom", res.Error)
	v, ok := res.Get("code")
	require.True(t, ok)
	assert.Equal(t, json.Number("3"), v)

	_, err = DecodeResult([]byte(`{"message":"no ok"}`))
	assert.Error(t, err)
}

func TestEncodeResultAppendsNewline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeResult(&buf, OK("bpm", 125.0)))
	assert.Equal(t, "{\"ok\":true,\"bpm\":125}\n", buf.String())
}

func TestEncodableReplacesUnmarshalableResult(t *testing.T) {
	res, err := Encodable(OK("value", math.NaN()))
	require.Error(t, err)
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "Failed to encode result")

	var buf bytes.Buffer
	require.NoError(t, EncodeResult(&buf, res))

	ok := OK("bpm", 120.0)
	same, err := Encodable(ok)
	require.NoError(t, err)
	assert.Equal(t, ok, same)
}

func TestEncodeRequest(t *testing.T) {
	var buf bytes.Buffer
	req := Request{Action: "set_tempo", Params: Params{"bpm": 120, "action": "ignored"}}
	require.NoError(t, EncodeRequest(&buf, req))
	assert.Equal(t, "{\"action\":\"set_tempo\",\"bpm\":120}\n", buf.String())

	back, err := DecodeRequest(bytes.TrimSpace(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "set_tempo", back.Action)
}
