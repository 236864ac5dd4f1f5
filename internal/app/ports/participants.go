package ports

import "savekeep/internal/domain/progress"

// Participant is any stateful entity that consumes and contributes to the record.
type Participant interface {
	LoadFrom(record progress.Record)
	SaveInto(record *progress.Record)
}

// Locator is implemented by a participant that owns the player's position.
type Locator interface {
	Position() (progress.Position, bool)
}
