package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUsernameTaken is returned when registering a username that already exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrPersonNotFound is returned when a person cannot be located by id.
	ErrPersonNotFound = errors.New("person not found")
	// ErrConflict is returned when a concurrent writer kept winning the update race.
	ErrConflict = errors.New("concurrent update conflict")
)

// ValidationError reports the first input field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ExerciseRecord is one logged activity embedded in a Person document.
type ExerciseRecord struct {
	Description string    `json:"description" bson:"description"`
	Duration    int       `json:"duration" bson:"duration"`
	Date        time.Time `json:"date" bson:"date"`
}

// Person is a registered user and the owner of an exercise log.
// Exercise is kept sorted ascending by Date.
type Person struct {
	ID        string           `json:"_id" bson:"_id"`
	Username  string           `json:"username" bson:"username"`
	Exercise  []ExerciseRecord `json:"exercise" bson:"exercise"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
	Rev       int64            `json:"-" bson:"rev"`
}

// Clone returns a copy that does not share the exercise slice.
func (p Person) Clone() Person {
	out := p
	out.Exercise = make([]ExerciseRecord, len(p.Exercise))
	copy(out.Exercise, p.Exercise)
	return out
}
