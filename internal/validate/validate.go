// Package validate implements the request validator described in 4.A:
// structural checks on the raw decoded JSON body before it is trusted as a
// MessageRequest.
package validate

import (
	"encoding/json"

	"claude-adapter-go/internal/gatewayerr"
)

// Validate checks a raw decoded body against the rules in 4.A, returning
// every violation found rather than stopping at the first.
func Validate(body map[string]interface{}) []gatewayerr.FieldError {
	var errs []gatewayerr.FieldError

	if model, ok := body["model"]; !ok {
		errs = append(errs, gatewayerr.FieldError{Field: "model", Message: "is required"})
	} else if _, isStr := model.(string); !isStr {
		errs = append(errs, gatewayerr.FieldError{Field: "model", Message: "must be a string"})
	}

	if mt, ok := body["max_tokens"]; !ok {
		errs = append(errs, gatewayerr.FieldError{Field: "max_tokens", Message: "is required"})
	} else if n, isNum := asNumber(mt); !isNum {
		errs = append(errs, gatewayerr.FieldError{Field: "max_tokens", Message: "must be a number"})
	} else if n <= 0 {
		errs = append(errs, gatewayerr.FieldError{Field: "max_tokens", Message: "must be positive"})
	}

	if msgs, ok := body["messages"]; !ok {
		errs = append(errs, gatewayerr.FieldError{Field: "messages", Message: "is required"})
	} else if arr, isArr := msgs.([]interface{}); !isArr {
		errs = append(errs, gatewayerr.FieldError{Field: "messages", Message: "must be an array"})
	} else if len(arr) == 0 {
		errs = append(errs, gatewayerr.FieldError{Field: "messages", Message: "must not be empty"})
	}

	if temp, ok := body["temperature"]; ok && temp != nil {
		if n, isNum := asNumber(temp); !isNum || n < 0 || n > 1 {
			errs = append(errs, gatewayerr.FieldError{Field: "temperature", Message: "must be between 0 and 1"})
		}
	}

	if topP, ok := body["top_p"]; ok && topP != nil {
		if n, isNum := asNumber(topP); !isNum || n < 0 || n > 1 {
			errs = append(errs, gatewayerr.FieldError{Field: "top_p", Message: "must be between 0 and 1"})
		}
	}

	if stream, ok := body["stream"]; ok && stream != nil {
		if _, isBool := stream.(bool); !isBool {
			errs = append(errs, gatewayerr.FieldError{Field: "stream", Message: "must be a boolean"})
		}
	}

	return errs
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
