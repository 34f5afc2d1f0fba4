package weather

import "fmt"

// Level is the severity attached to a user-facing notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// OutcomeKind classifies the result of a service operation.
type OutcomeKind string

const (
	OutcomeAdded            OutcomeKind = "added"
	OutcomeUpdated          OutcomeKind = "updated"
	OutcomeRemoved          OutcomeKind = "removed"
	OutcomeCleared          OutcomeKind = "cleared"
	OutcomeValidationFailed OutcomeKind = "validation_failed"
	OutcomeLookupFailed     OutcomeKind = "lookup_failed"
	OutcomeNoOp             OutcomeKind = "noop"
)

// Outcome is the typed result of a service operation. Record is set for
// Added, Updated and Removed. Err carries the cause of a failure or of a
// discarded refresh.
type Outcome struct {
	Kind    OutcomeKind
	City    string
	Record  *WeatherRecord
	Message string
	Level   Level
	Err     error
}

// OK reports whether the operation changed the store as requested.
func (o Outcome) OK() bool {
	switch o.Kind {
	case OutcomeAdded, OutcomeUpdated, OutcomeRemoved, OutcomeCleared:
		return true
	}
	return false
}

func added(rec WeatherRecord) Outcome {
	return Outcome{
		Kind:    OutcomeAdded,
		City:    rec.CityName,
		Record:  &rec,
		Message: fmt.Sprintf("Added %s to your cities", rec.CityName),
		Level:   LevelSuccess,
	}
}

func updated(rec WeatherRecord) Outcome {
	return Outcome{
		Kind:    OutcomeUpdated,
		City:    rec.CityName,
		Record:  &rec,
		Message: fmt.Sprintf("Updated weather for %s", rec.CityName),
		Level:   LevelInfo,
	}
}

func removed(rec WeatherRecord) Outcome {
	return Outcome{
		Kind:    OutcomeRemoved,
		City:    rec.CityName,
		Record:  &rec,
		Message: fmt.Sprintf("Removed %s from your cities", rec.CityName),
		Level:   LevelInfo,
	}
}

func cleared() Outcome {
	return Outcome{
		Kind:    OutcomeCleared,
		Message: "Cleared all cities",
		Level:   LevelInfo,
	}
}

func validationFailed(message string) Outcome {
	return Outcome{
		Kind:    OutcomeValidationFailed,
		Message: message,
		Level:   LevelWarning,
	}
}

func lookupFailed(city, message string, err error) Outcome {
	return Outcome{
		Kind:    OutcomeLookupFailed,
		City:    city,
		Message: message,
		Level:   LevelError,
		Err:     err,
	}
}

func noop(city string, err error) Outcome {
	return Outcome{Kind: OutcomeNoOp, City: city, Err: err}
}
