package services

// Custom errors

// ValidationError rejects malformed input before any write happens.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// NotFoundError means the referenced session or goal does not exist (or is no
// longer in a state the operation applies to).
type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// ForbiddenError means the record exists but belongs to another user. The
// HTTP layer collapses it into NOT_FOUND so existence is never leaked; the
// distinction stays visible to callers inside the process.
type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

// ConflictError reports a lost race, such as two devices starting a session
// for the same user at once.
type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }
