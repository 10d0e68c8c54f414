package azrest

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ResponseError is returned for every non-2xx vendor response.
type ResponseError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *ResponseError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("azure %d: %s", e.StatusCode, truncate(e.Body, 512))
	}
	return fmt.Sprintf("azure %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// parseError understands the envelopes used across the cognitive services:
//
//	{"error":{"code":"...","message":"..."}}   most services
//	{"code":"...","message":"..."}             custom vision, older APIs
//	{"Message":"...","Errors":[{"Title":...}]} content moderator
func parseError(status int, body []byte) *ResponseError {
	re := &ResponseError{StatusCode: status, Body: strings.TrimSpace(string(body))}

	var env struct {
		Error *struct {
			Code    any    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Code    any    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Title   string `json:"Title"`
			Message string `json:"Message"`
		} `json:"Errors"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return re
	}
	switch {
	case env.Error != nil:
		re.Code = codeString(env.Error.Code)
		re.Message = env.Error.Message
	case env.Code != nil || env.Message != "":
		re.Code = codeString(env.Code)
		re.Message = env.Message
	}
	if len(env.Errors) > 0 {
		if re.Code == "" {
			re.Code = env.Errors[0].Title
		}
		if re.Message == "" {
			re.Message = env.Errors[0].Message
		}
	}
	return re
}

// Codes are strings on most services but numbers on some (e.g. 401000).
func codeString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return fmt.Sprintf("%.0f", c)
	default:
		return fmt.Sprint(c)
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
