package domain

// Actor is the already authenticated caller of a todo operation.
// CorrelationID only travels along for logs and traces.
type Actor struct {
	CorrelationID string
	UserID        int
	IsAdmin       bool
}

// CanAccess reports whether the actor may see or edit the todo: admins
// always can, everybody else only their own.
func (a Actor) CanAccess(todo Todo) bool {
	return a.IsAdmin || todo.BelongsToUser(a.UserID)
}

// Role is the label used in logs and metrics.
func (a Actor) Role() string {
	if a.IsAdmin {
		return "admin"
	}
	return "user"
}
