// Package response defines the JSON envelope every API endpoint returns.
package response

// Response is the uniform envelope. Exactly one of Data and Error is set.
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code, mirrored in the body
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success wraps data in a success envelope.
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error wraps a message in an error envelope.
func Error(statusCode int, msg string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      msg,
	}
}
