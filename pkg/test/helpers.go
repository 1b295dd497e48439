package test

import (
	"log"

	"todoguard/internal/adapter/database"
	"todoguard/internal/adapter/database/sqlite"
)

// InitTestDB opens a private in-memory sqlite database with the schema applied.
func InitTestDB() *database.DB {
	db, err := sqlite.Open(sqlite.Config{Path: sqlite.MemoryPath})
	if err != nil {
		log.Fatal(err)
	}

	return db
}
