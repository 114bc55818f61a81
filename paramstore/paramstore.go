// Package paramstore persists fitted feature engineering parameters in a
// SQLite database, keyed by dataset name, so that a pipeline fitted on one
// run can be re-applied on the next.
package paramstore

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/carbocation/exprharmony/transform"
	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("paramstore: no parameters stored under that name")

const schema = `
CREATE TABLE IF NOT EXISTS parameters (
	name TEXT PRIMARY KEY,
	normalization TEXT NOT NULL,
	transformation TEXT NOT NULL,
	payload TEXT NOT NULL,
	updated TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

type Store struct {
	DB *sqlx.DB
}

// Entry describes one stored parameter set.
type Entry struct {
	Name           string `db:"name"`
	Normalization  string `db:"normalization"`
	Transformation string `db:"transformation"`
	Updated        string `db:"updated"`
}

// UpdatedAt parses the time the entry was last saved. Rows written by other
// SQLite clients may carry CURRENT_TIMESTAMP's layout instead of RFC 3339.
func (e Entry) UpdatedAt() (time.Time, error) {
	t, err := dateparse.ParseIn(e.Updated, time.UTC)
	if err != nil {
		return time.Time{}, pfx.Err(fmt.Errorf("%s: %w", e.Name, err))
	}
	return t, nil
}

type row struct {
	Entry
	Payload string `db:"payload"`
}

// Open opens (creating if needed) the parameter database at path.
func Open(path string) (*Store, error) {
	// URI filenames have to begin with 'file:'
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect(driverName, path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Save stores params under name, replacing any earlier entry.
func (s *Store) Save(name string, params *transform.Parameters) error {
	var buf bytes.Buffer
	if err := params.Encode(&buf); err != nil {
		return pfx.Err(err)
	}

	r := row{
		Entry: Entry{
			Name:           name,
			Transformation: string(params.Transformation),
			Updated:        time.Now().UTC().Format(time.RFC3339),
		},
		Payload: buf.String(),
	}
	if params.Normalization != nil {
		r.Normalization = string(params.Normalization.Method)
	}

	_, err := s.DB.NamedExec(`INSERT INTO parameters (name, normalization, transformation, payload, updated)
		VALUES (:name, :normalization, :transformation, :payload, :updated)
		ON CONFLICT(name) DO UPDATE SET
			normalization=excluded.normalization,
			transformation=excluded.transformation,
			payload=excluded.payload,
			updated=excluded.updated`, r)
	if err != nil {
		return pfx.Err(fmt.Errorf("saving %s: %w", name, err))
	}

	return nil
}

// Load returns the parameters stored under name, or ErrNotFound.
func (s *Store) Load(name string) (*transform.Parameters, error) {
	r := row{}
	err := s.DB.Get(&r, "SELECT name, normalization, transformation, payload, updated FROM parameters WHERE name=?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	return transform.DecodeParameters(strings.NewReader(r.Payload))
}

// List returns every stored entry, ordered by name.
func (s *Store) List() ([]Entry, error) {
	out := []Entry{}
	if err := s.DB.Select(&out, "SELECT name, normalization, transformation, updated FROM parameters ORDER BY name"); err != nil {
		return nil, pfx.Err(err)
	}
	return out, nil
}

// Delete removes the entry stored under name, or returns ErrNotFound.
func (s *Store) Delete(name string) error {
	res, err := s.DB.Exec("DELETE FROM parameters WHERE name=?", name)
	if err != nil {
		return pfx.Err(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return pfx.Err(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}
