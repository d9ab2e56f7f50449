package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/viper"
)

const pingTimeout = 5 * time.Second

// JournalStore describes where the transaction journal lives and how the pool is sized.
type JournalStore struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// LoadJournalStore reads the database.* keys, falling back to a local
// development database.
func LoadJournalStore() JournalStore {
	defaults := map[string]any{
		"database.host":              "localhost",
		"database.port":              "5432",
		"database.user":              "postgres",
		"database.password":          "password",
		"database.name":              "atm_terminal",
		"database.ssl_mode":          "disable",
		"database.max_open_conns":    10,
		"database.max_idle_conns":    2,
		"database.conn_max_lifetime": 30 * time.Minute,
	}
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	return JournalStore{
		Host:            viper.GetString("database.host"),
		Port:            viper.GetString("database.port"),
		User:            viper.GetString("database.user"),
		Password:        viper.GetString("database.password"),
		Name:            viper.GetString("database.name"),
		SSLMode:         viper.GetString("database.ssl_mode"),
		MaxOpenConns:    viper.GetInt("database.max_open_conns"),
		MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
	}
}

// URL renders the store as a postgres:// connection URL. Credentials are escaped.
func (s JournalStore) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(s.User, s.Password),
		Host:     net.JoinHostPort(s.Host, s.Port),
		Path:     "/" + s.Name,
		RawQuery: url.Values{"sslmode": {s.SSLMode}}.Encode(),
	}
	return u.String()
}

// Redacted is URL with the password masked, for logs.
func (s JournalStore) Redacted() string {
	u, err := url.Parse(s.URL())
	if err != nil {
		return s.Host
	}
	return u.Redacted()
}

// Connect opens a pool against the store and checks that it answers.
func Connect(ctx context.Context, s JournalStore) (*sql.DB, error) {
	db, err := sql.Open("postgres", s.URL())
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	db.SetMaxOpenConns(s.MaxOpenConns)
	db.SetMaxIdleConns(s.MaxIdleConns)
	db.SetConnMaxLifetime(s.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("reach journal database at %s: %w", s.Redacted(), err)
	}
	return db, nil
}

// MustOpenJournal connects and migrates, exiting the process on failure.
// Used by the server when database.enabled is set.
func MustOpenJournal(ctx context.Context) *sql.DB {
	store := LoadJournalStore()
	db, err := Connect(ctx, store)
	if err != nil {
		log.Fatalf("[DB] %v", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		log.Fatalf("[DB] %v", err)
	}
	log.Printf("[DB] Journal database ready at %s", store.Redacted())
	return db
}

var journalMigrations = []struct {
	name string
	stmt string
}{
	{"atm_journal", `
CREATE TABLE IF NOT EXISTS atm_journal (
	id             BIGSERIAL PRIMARY KEY,
	transaction_id TEXT        NOT NULL UNIQUE,
	session_id     TEXT        NOT NULL,
	terminal_id    TEXT        NOT NULL,
	card_id        TEXT        NOT NULL,
	entry_type     TEXT        NOT NULL,
	amount         NUMERIC(18,2),
	balance        NUMERIC(18,2),
	status         TEXT        NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
)`},
	{"atm_journal_session_idx", `CREATE INDEX IF NOT EXISTS atm_journal_session_idx ON atm_journal (session_id, id)`},
}

// Migrate creates the journal table and the index history lookups use.
// Every statement is idempotent, so it runs on each start.
func Migrate(db *sql.DB) error {
	for _, m := range journalMigrations {
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}
	return nil
}
