package interaction

import (
	"database/sql"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresLog is a History persisted in the interaction_log table. Write
// failures are logged and dropped so a database outage never fails a request.
type PostgresLog struct {
	db  *sql.DB
	log *log.Logger
	now func() time.Time

	schemaOnce sync.Once
	schemaErr  error
}

// NewPostgres opens dsn with the pgx driver and checks the connection.
func NewPostgres(dsn string, logger *log.Logger) (*PostgresLog, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &PostgresLog{db: db, log: logger, now: time.Now}, nil
}

// NewFromDSN returns a PostgresLog for dsn, or an in-memory Log when dsn is
// empty or the database is unreachable.
func NewFromDSN(dsn string, logger *log.Logger) History {
	if strings.TrimSpace(dsn) == "" {
		return NewLog()
	}
	pg, err := NewPostgres(dsn, logger)
	if err != nil {
		if logger != nil {
			logger.Printf("interaction: postgres unavailable, keeping history in memory: %v", err)
		}
		return NewLog()
	}
	return pg
}

func (p *PostgresLog) ensureSchema() error {
	p.schemaOnce.Do(func() {
		_, p.schemaErr = p.db.Exec(`
CREATE TABLE IF NOT EXISTS interaction_log (
  id BIGSERIAL PRIMARY KEY,
  kind TEXT NOT NULL,
  question TEXT NOT NULL DEFAULT '',
  answer TEXT NOT NULL DEFAULT '',
  questions JSONB,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`)
	})
	return p.schemaErr
}

func (p *PostgresLog) Append(e Entry) {
	if err := p.ensureSchema(); err != nil {
		p.log.Printf("interaction: schema: %v", err)
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = p.now()
	}
	questions, err := encodeQuestions(e.Questions)
	if err != nil {
		p.log.Printf("interaction: encode questions: %v", err)
		return
	}
	_, err = p.db.Exec(`
INSERT INTO interaction_log (kind, question, answer, questions, created_at)
VALUES ($1,$2,$3,$4,$5)`,
		string(e.Kind), e.Question, e.Answer, questions, e.Timestamp)
	if err != nil {
		p.log.Printf("interaction: append %s: %v", e.Kind, err)
	}
}

// Entries returns every stored entry in insertion order. Questions come back
// as raw JSON.
func (p *PostgresLog) Entries() []Entry {
	if err := p.ensureSchema(); err != nil {
		p.log.Printf("interaction: schema: %v", err)
		return nil
	}
	rows, err := p.db.Query(`SELECT kind, question, answer, questions, created_at
FROM interaction_log ORDER BY id`)
	if err != nil {
		p.log.Printf("interaction: list: %v", err)
		return nil
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			kind      string
			questions []byte
		)
		if err := rows.Scan(&kind, &e.Question, &e.Answer, &questions, &e.Timestamp); err != nil {
			p.log.Printf("interaction: scan: %v", err)
			return out
		}
		e.Kind = Kind(kind)
		if len(questions) > 0 {
			e.Questions = json.RawMessage(questions)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		p.log.Printf("interaction: list: %v", err)
	}
	return out
}

func (p *PostgresLog) Close() error {
	return p.db.Close()
}

// encodeQuestions renders v for the JSONB column; nil stays SQL NULL.
func encodeQuestions(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
