package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"example.com/exercisetracker/internal/domain"
)

const personColumns = `id::text, username, exercise, rev, created_at`

// Repository provides Postgres-backed persistence for people and their exercise logs.
type Repository struct {
	db *DB
}

// NewRepository constructs a Repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// FindByUsername implements domain.PersonRepository.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*domain.Person, error) {
	const q = `SELECT ` + personColumns + ` FROM people WHERE username = $1`
	return r.getOne(ctx, q, username)
}

// Create inserts a new person; a duplicate username maps to domain.ErrUsernameTaken.
func (r *Repository) Create(ctx context.Context, person domain.Person) error {
	id, err := uuid.Parse(person.ID)
	if err != nil {
		return fmt.Errorf("invalid person id %q: %w", person.ID, err)
	}
	body, err := encodeExercise(person.Exercise)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO people (id, username, exercise, rev, created_at)
VALUES ($1, $2, $3::jsonb, $4, $5)`
	_, err = r.db.Pool.Exec(ctx, q, id, person.Username, body, person.Rev, person.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrUsernameTaken
	}
	return err
}

// Get implements domain.PersonRepository.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Person, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	const q = `SELECT ` + personColumns + ` FROM people WHERE id = $1`
	return r.getOne(ctx, q, key)
}

// List returns every person in registration order.
func (r *Repository) List(ctx context.Context) ([]domain.Person, error) {
	const q = `SELECT ` + personColumns + ` FROM people ORDER BY created_at, id`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	people := make([]domain.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return people, nil
}

// Update locks the person row, applies mutate and writes the exercise log back
// inside one transaction.
func (r *Repository) Update(ctx context.Context, id string, mutate func(*domain.Person) error) (person *domain.Person, err error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrPersonNotFound
	}

	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			person, err = nil, e
		}
	}()

	const sel = `SELECT ` + personColumns + ` FROM people WHERE id = $1 FOR UPDATE`
	p, err := scanPerson(tx.QueryRow(ctx, sel, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPersonNotFound
		}
		return nil, err
	}

	if err = mutate(&p); err != nil {
		return nil, err
	}
	body, err := encodeExercise(p.Exercise)
	if err != nil {
		return nil, err
	}
	p.Rev++

	const upd = `UPDATE people SET exercise = $2::jsonb, rev = $3 WHERE id = $1`
	if _, err = tx.Exec(ctx, upd, key, body, p.Rev); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) getOne(ctx context.Context, q string, arg any) (*domain.Person, error) {
	p, err := scanPerson(r.db.Pool.QueryRow(ctx, q, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPerson(row pgx.Row) (domain.Person, error) {
	var (
		p   domain.Person
		raw []byte
	)
	if err := row.Scan(&p.ID, &p.Username, &raw, &p.Rev, &p.CreatedAt); err != nil {
		return domain.Person{}, err
	}
	p.Exercise = []domain.ExerciseRecord{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.Exercise); err != nil {
			return domain.Person{}, fmt.Errorf("decoding exercise log of %s: %w", p.ID, err)
		}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func encodeExercise(records []domain.ExerciseRecord) (string, error) {
	if records == nil {
		records = []domain.ExerciseRecord{}
	}
	body, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encoding exercise log: %w", err)
	}
	return string(body), nil
}
