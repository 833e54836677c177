// Package domain defines the user registry and exercise log logic.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/exercisetracker/internal/observability"
)

const maxUsernameLength = 100

// PersonRepository captures persistence operations for Person documents.
// Lookups return nil, nil on a miss.
type PersonRepository interface {
	FindByUsername(ctx context.Context, username string) (*Person, error)
	// Create returns ErrUsernameTaken when the username already exists.
	Create(ctx context.Context, person Person) error
	Get(ctx context.Context, id string) (*Person, error)
	List(ctx context.Context) ([]Person, error)
	// Update applies mutate to the stored person atomically and returns the result.
	// It returns ErrPersonNotFound when id is unknown.
	Update(ctx context.Context, id string, mutate func(*Person) error) (*Person, error)
}

// Event types emitted by the Service.
const (
	EventPersonRegistered = "person.registered"
	EventExerciseLogged   = "exercise.logged"
)

// Event describes a completed registry or log mutation.
type Event struct {
	Type       string          `json:"event_type"`
	PersonID   string          `json:"person_id"`
	Username   string          `json:"username"`
	Exercise   *ExerciseRecord `json:"exercise,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// EventPublisher delivers domain events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for default exercise dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher sets the publisher notified after successful mutations.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service orchestrates the user registry and exercise log.
type Service struct {
	repo      PersonRepository
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo PersonRepository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a person with an empty exercise log.
// The lookup is a fast path; the repository's unique constraint settles races.
func (s *Service) Register(ctx context.Context, username string) (*Person, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "username is required")
	}
	if len(username) > maxUsernameLength {
		return nil, invalid("username", "username is too long")
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		observability.RecordRegistration("error")
		return nil, fmt.Errorf("finding person by username: %w", err)
	}
	if existing != nil {
		observability.RecordRegistration("taken")
		return nil, ErrUsernameTaken
	}

	person := Person{
		ID:        uuid.NewString(),
		Username:  username,
		Exercise:  []ExerciseRecord{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, person); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			observability.RecordRegistration("taken")
			return nil, err
		}
		observability.RecordRegistration("error")
		return nil, fmt.Errorf("creating person: %w", err)
	}
	observability.RecordRegistration("created")

	s.publish(ctx, Event{
		Type:       EventPersonRegistered,
		PersonID:   person.ID,
		Username:   person.Username,
		OccurredAt: person.CreatedAt,
	})
	return &person, nil
}

// ListUsers returns every registered person.
func (s *Service) ListUsers(ctx context.Context) ([]Person, error) {
	people, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}
	if people == nil {
		people = []Person{}
	}
	return people, nil
}

// AppendExerciseInput captures the raw values submitted for a new log entry.
type AppendExerciseInput struct {
	PersonID    string
	Description string
	Duration    string
	Date        string
}

func (s *Service) parseRecord(input AppendExerciseInput) (ExerciseRecord, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return ExerciseRecord{}, invalid("description", "description is required")
	}

	rawDuration := strings.TrimSpace(input.Duration)
	if rawDuration == "" {
		return ExerciseRecord{}, invalid("duration", "duration is required")
	}
	duration, err := strconv.Atoi(rawDuration)
	if err != nil {
		return ExerciseRecord{}, invalid("duration", "duration must be a whole number of minutes")
	}
	if duration <= 0 {
		return ExerciseRecord{}, invalid("duration", "duration must be > 0")
	}

	date := s.now().UTC()
	if strings.TrimSpace(input.Date) != "" {
		parsed, ok := ParseDate(input.Date)
		if !ok {
			return ExerciseRecord{}, invalid("date", "date must be formatted as YYYY-MM-DD")
		}
		date = parsed
	}

	return ExerciseRecord{Description: description, Duration: duration, Date: date}, nil
}

// AppendExercise inserts a record into the person's log in date order.
func (s *Service) AppendExercise(ctx context.Context, input AppendExerciseInput) (*Person, ExerciseRecord, error) {
	if strings.TrimSpace(input.PersonID) == "" {
		return nil, ExerciseRecord{}, invalid("userId", "userId is required")
	}
	rec, err := s.parseRecord(input)
	if err != nil {
		return nil, ExerciseRecord{}, err
	}
	id, ok := normalizeID(input.PersonID)
	if !ok {
		return nil, ExerciseRecord{}, ErrPersonNotFound
	}

	person, err := s.repo.Update(ctx, id, func(p *Person) error {
		p.Exercise = InsertExercise(p.Exercise, rec)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPersonNotFound) {
			return nil, ExerciseRecord{}, err
		}
		return nil, ExerciseRecord{}, fmt.Errorf("appending exercise: %w", err)
	}
	observability.RecordExerciseAppended(rec.Date)

	s.publish(ctx, Event{
		Type:       EventExerciseLogged,
		PersonID:   person.ID,
		Username:   person.Username,
		Exercise:   &rec,
		OccurredAt: s.now().UTC(),
	})
	return person, rec, nil
}

// GetLog returns the person's records filtered by q.
func (s *Service) GetLog(ctx context.Context, personID string, q LogQuery) (*LogView, error) {
	id, ok := normalizeID(personID)
	if !ok {
		return nil, ErrPersonNotFound
	}
	person, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading person: %w", err)
	}
	if person == nil {
		return nil, ErrPersonNotFound
	}

	log := FilterLog(person.Exercise, q)
	observability.RecordLogQuery(len(log))
	return &LogView{
		ID:       person.ID,
		Username: person.Username,
		Count:    len(log),
		Log:      log,
	}, nil
}

func (s *Service) publish(ctx context.Context, evt Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", evt.Type),
			zap.String("person_id", evt.PersonID),
			zap.Error(err),
		)
	}
}

// normalizeID canonicalises a person id; ids that are not UUIDs can never match.
func normalizeID(raw string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
