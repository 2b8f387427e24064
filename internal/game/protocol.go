package game

import (
	"encoding/json"
	"fmt"
)

// Request is the discriminated client message: an action name plus an
// action-specific parameter object.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers exactly one Request.
type Response struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Event is a server-initiated broadcast (news, winner announcements, mail
// arrival) pushed on the same connection as responses.
type Event struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// OK builds a success response.
func OK(message string, data map[string]any) Response {
	return Response{Success: true, Message: message, Data: data}
}

// Fail converts an error into the wire response, hiding internal error
// detail behind the INTERNAL_ERROR code.
func Fail(err error) Response {
	if r, ok := AsRejection(err); ok {
		return Response{Success: false, Error: string(r.Code), Message: r.Message}
	}
	return Response{Success: false, Error: string(RejectInternal)}
}

// DecodeParams unmarshals a request's parameter object into dst, mapping
// malformed payloads to a validation rejection.
func DecodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return reject(RejectInvalidRequest, "malformed params: %s", err.Error())
	}
	return nil
}

func (r Request) String() string {
	return fmt.Sprintf("action=%s", r.Action)
}
