package factory

import (
	fab "github.com/Goldziher/fabricator"
)

// NewTodo builds a T with random field values, customData overriding them.
func NewTodo[T any](customData ...map[string]any) T {
	instance := fab.New(*new(T))

	if len(customData) > 0 {
		return instance.Build(customData...)
	}

	return instance.Build()
}

// TodoFor returns overrides for an open todo owned by userID, merged with extra.
func TodoFor(userID int, extra ...map[string]any) map[string]any {
	data := map[string]any{
		"Title":       "Factory made todo",
		"Description": "made by the test factory",
		"IsClosed":    false,
		"CreatedByID": userID,
		"UpdatedByID": userID,
	}

	for _, e := range extra {
		for key, value := range e {
			data[key] = value
		}
	}

	return data
}
