package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/banshee-data/arbor/internal/monitoring"
	_ "modernc.org/sqlite"
)

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"foreign_keys(1)",
}

// DB wraps the run database.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema version.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	d := &DB{DB: db, path: path}
	if err := d.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Logf("opened run database %s", path)
	return d, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string {
	return db.path
}

func dsn(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}
