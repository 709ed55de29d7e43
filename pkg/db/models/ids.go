package models

import "github.com/google/uuid"

// assignID gives rows an application-generated key so inserts behave the same
// on Postgres and SQLite.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
