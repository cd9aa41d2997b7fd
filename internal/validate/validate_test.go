package validate

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]interface{}
		wantErr int
	}{
		{
			name: "valid minimal request",
			body: map[string]interface{}{
				"model":      "claude-3-5-sonnet",
				"max_tokens": float64(100),
				"messages":   []interface{}{map[string]interface{}{"role": "user", "content": "hi"}},
			},
			wantErr: 0,
		},
		{
			name:    "missing everything",
			body:    map[string]interface{}{},
			wantErr: 3,
		},
		{
			name: "empty messages",
			body: map[string]interface{}{
				"model":      "x",
				"max_tokens": float64(10),
				"messages":   []interface{}{},
			},
			wantErr: 1,
		},
		{
			name: "non-positive max_tokens",
			body: map[string]interface{}{
				"model":      "x",
				"max_tokens": float64(0),
				"messages":   []interface{}{map[string]interface{}{"role": "user", "content": "hi"}},
			},
			wantErr: 1,
		},
		{
			name: "temperature out of range",
			body: map[string]interface{}{
				"model":       "x",
				"max_tokens":  float64(10),
				"messages":    []interface{}{map[string]interface{}{"role": "user", "content": "hi"}},
				"temperature": float64(1.5),
			},
			wantErr: 1,
		},
		{
			name: "stream not boolean",
			body: map[string]interface{}{
				"model":      "x",
				"max_tokens": float64(10),
				"messages":   []interface{}{map[string]interface{}{"role": "user", "content": "hi"}},
				"stream":     "yes",
			},
			wantErr: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.body)
			if len(errs) != tt.wantErr {
				t.Errorf("got %d errors (%v), want %d", len(errs), errs, tt.wantErr)
			}
		})
	}
}
