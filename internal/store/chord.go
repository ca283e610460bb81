package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ChordNote is one string of a stored chord shape. Finger 0 means open or
// unfingered.
type ChordNote struct {
	String int `json:"string"`
	Fret   int `json:"fret"`
	Finger int `json:"finger,omitempty"`
}

// Chord is a user-defined chord shape.
type Chord struct {
	ID        string
	Name      string
	FullName  string
	Notes     []ChordNote
	Muted     []int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChordRepository provides CRUD operations for custom chords.
type ChordRepository struct {
	db *sql.DB
}

// Chords returns the chord repository for this store.
func (s *Store) Chords() *ChordRepository {
	return &ChordRepository{db: s.db}
}

// Create inserts a new chord. A name already in use returns ErrConflict.
func (r *ChordRepository) Create(c *Chord) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	notes, muted, err := encodeShape(c)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO chords (id, name, full_name, notes, muted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.FullName, notes, muted, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("chord %q: %w", c.Name, ErrConflict)
		}
		return err
	}

	return nil
}

// GetByName retrieves a chord by its name.
func (r *ChordRepository) GetByName(name string) (*Chord, error) {
	row := r.db.QueryRow(
		`SELECT id, name, full_name, notes, muted, created_at, updated_at
		 FROM chords WHERE name = ?`,
		name,
	)

	c, err := scanChord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// List retrieves all chords in the order they were added.
func (r *ChordRepository) List() ([]*Chord, error) {
	rows, err := r.db.Query(
		`SELECT id, name, full_name, notes, muted, created_at, updated_at
		 FROM chords ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chords []*Chord
	for rows.Next() {
		c, err := scanChord(rows)
		if err != nil {
			return nil, err
		}
		chords = append(chords, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return chords, nil
}

// Update replaces the shape of an existing chord, looked up by ID.
func (r *ChordRepository) Update(c *Chord) error {
	c.UpdatedAt = time.Now()

	notes, muted, err := encodeShape(c)
	if err != nil {
		return err
	}

	result, err := r.db.Exec(
		`UPDATE chords SET name = ?, full_name = ?, notes = ?, muted = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.FullName, notes, muted, c.UpdatedAt, c.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("chord %q: %w", c.Name, ErrConflict)
		}
		return err
	}

	return expectOneRow(result)
}

// DeleteByName removes a chord by its name.
func (r *ChordRepository) DeleteByName(name string) error {
	result, err := r.db.Exec(`DELETE FROM chords WHERE name = ?`, name)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChord(s scanner) (*Chord, error) {
	c := &Chord{}
	var notes, muted string

	if err := s.Scan(&c.ID, &c.Name, &c.FullName, &notes, &muted, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(notes), &c.Notes); err != nil {
		return nil, fmt.Errorf("decode notes of chord %q: %w", c.Name, err)
	}
	if err := json.Unmarshal([]byte(muted), &c.Muted); err != nil {
		return nil, fmt.Errorf("decode muted strings of chord %q: %w", c.Name, err)
	}

	return c, nil
}

func encodeShape(c *Chord) (notes, muted string, err error) {
	n := c.Notes
	if n == nil {
		n = []ChordNote{}
	}
	m := c.Muted
	if m == nil {
		m = []int{}
	}

	nb, err := json.Marshal(n)
	if err != nil {
		return "", "", fmt.Errorf("encode notes: %w", err)
	}
	mb, err := json.Marshal(m)
	if err != nil {
		return "", "", fmt.Errorf("encode muted strings: %w", err)
	}
	return string(nb), string(mb), nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
