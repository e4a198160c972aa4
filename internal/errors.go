package internal

// AppError is the error shape every domain operation returns for
// conditions the client caused. Status drives the HTTP response,
// Code is a machine-readable marker for conflicts, and Fields carries
// extra payload such as retry-hint dates.
type AppError struct {
	Status  int
	Code    string
	Message string
	Fields  map[string]interface{}
}

func (e *AppError) Error() string { return e.Message }

// With attaches an extra response field and returns the same error so
// calls can chain off a constructor.
func (e *AppError) With(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

func NewAppError(status int, msg string) *AppError {
	return &AppError{Status: status, Message: msg}
}

func NewValidationError(msg string) *AppError {
	return NewAppError(400, msg)
}

func NewUnauthorizedError(msg string) *AppError {
	return NewAppError(401, msg)
}

func NewForbiddenError(msg string) *AppError {
	return NewAppError(403, msg)
}

func NewNotFoundError(msg string) *AppError {
	return NewAppError(404, msg)
}

func NewConflictError(code, msg string) *AppError {
	return &AppError{Status: 409, Code: code, Message: msg}
}

func NewInternalError(msg string) *AppError {
	return NewAppError(500, msg)
}
