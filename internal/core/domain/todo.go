package domain

import "time"

// InitialVersion is the version a todo carries right after it is created.
const InitialVersion = 1

type Todo struct {
	ID          int       `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	IsClosed    bool      `db:"is_closed"`
	Version     int       `db:"version"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	CreatedByID int       `db:"created_by_id"`
	UpdatedByID int       `db:"updated_by_id"`
}

// NewTodo builds an open todo owned by userID. ID, version and timestamps
// are left for the persistence layer.
func NewTodo(title, description string, userID int) Todo {
	return Todo{
		Title:       title,
		Description: description,
		IsClosed:    false,
		CreatedByID: userID,
		UpdatedByID: userID,
	}
}

func (t *Todo) BelongsToUser(userID int) bool {
	return t.CreatedByID == userID
}

// TouchedBy records userID as the last user who mutated the todo.
func (t *Todo) TouchedBy(userID int) {
	t.UpdatedByID = userID
}

// ToMap flattens the todo into column-named fields, used as event metadata.
func (t *Todo) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"id":            t.ID,
		"title":         t.Title,
		"description":   t.Description,
		"is_closed":     t.IsClosed,
		"version":       t.Version,
		"created_at":    t.CreatedAt,
		"updated_at":    t.UpdatedAt,
		"created_by_id": t.CreatedByID,
		"updated_by_id": t.UpdatedByID,
	}
}
