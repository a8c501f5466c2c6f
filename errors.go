package sessionauth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind names a client-visible failure.
type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "InvalidCredentials"
	KindUnauthorized       ErrorKind = "Unauthorized"
	KindDBError            ErrorKind = "DbError"
	KindDBConnectionError  ErrorKind = "DBConnectionError"
	KindUnexpectedError    ErrorKind = "UnexpectedError"
	KindExpired            ErrorKind = "Expired"
)

// APIError is the error carried in every response envelope. DbError and
// UnexpectedError carry a detail string; the other kinds carry none.
//
// On the wire unit kinds are a bare string ("Unauthorized") and detail kinds
// are a one-key object ({"DbError": "..."}).
type APIError struct {
	Kind   ErrorKind
	Detail string
}

var (
	ErrInvalidCredentials = &APIError{Kind: KindInvalidCredentials}
	ErrUnauthorized       = &APIError{Kind: KindUnauthorized}
	ErrExpired            = &APIError{Kind: KindExpired}
	ErrDBConnection       = &APIError{Kind: KindDBConnectionError}
	// ErrDB and ErrUnexpected match any error of their kind via errors.Is.
	ErrDB         = &APIError{Kind: KindDBError}
	ErrUnexpected = &APIError{Kind: KindUnexpectedError}

	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// DBError reports a database statement failure with detail.
func DBError(detail string) *APIError {
	return &APIError{Kind: KindDBError, Detail: detail}
}

// UnexpectedError reports a failure that fits no other kind.
func UnexpectedError(detail string) *APIError {
	return &APIError{Kind: KindUnexpectedError, Detail: detail}
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindInvalidCredentials:
		return "Invalid username or password"
	case KindUnauthorized:
		return "Unauthorized"
	case KindDBError:
		return "Database error: " + e.Detail
	case KindDBConnectionError:
		return "No DB connection"
	case KindExpired:
		return "Session expired"
	default:
		return e.Detail
	}
}

// Is matches on Kind alone so sentinels compare equal to detailed errors.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Kind == e.Kind
}

func (e *APIError) hasDetail() bool {
	return e.Kind == KindDBError || e.Kind == KindUnexpectedError
}

func (e APIError) MarshalJSON() ([]byte, error) {
	if e.hasDetail() {
		return json.Marshal(map[ErrorKind]string{e.Kind: e.Detail})
	}
	return json.Marshal(string(e.Kind))
}

func (e *APIError) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var kind string
		if err := json.Unmarshal(data, &kind); err != nil {
			return err
		}
		e.Kind, e.Detail = ErrorKind(kind), ""
		if !e.validKind() || e.hasDetail() {
			return fmt.Errorf("unknown error kind %q", kind)
		}
		return nil
	}

	var tagged map[string]string
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return errors.New("error object must have exactly one key")
	}
	for kind, detail := range tagged {
		e.Kind, e.Detail = ErrorKind(kind), detail
	}
	if !e.hasDetail() {
		return fmt.Errorf("error kind %q carries no detail", e.Kind)
	}
	return nil
}

func (e *APIError) validKind() bool {
	switch e.Kind {
	case KindInvalidCredentials, KindUnauthorized, KindDBError,
		KindDBConnectionError, KindUnexpectedError, KindExpired:
		return true
	}
	return false
}

// AsAPIError returns err as an *APIError, wrapping anything else as
// UnexpectedError.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return UnexpectedError(err.Error())
}
