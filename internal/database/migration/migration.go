package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  title         TEXT        NOT NULL,
  status        TEXT        NOT NULL DEFAULT 'DRAFT' CHECK (status IN ('DRAFT', 'PENDING', 'COMPLETED')),
  owner_user_id TEXT        NOT NULL,
  team_id       TEXT        NULL,
  storage_path  TEXT        NOT NULL UNIQUE,
  content_type  TEXT        NOT NULL,
  size          BIGINT      NOT NULL CHECK (size >= 0),
  auth_options  JSONB       NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
  deleted_at    TIMESTAMPTZ NULL
);`,
	},
	{
		Name: "create_index_documents_owner",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents (owner_user_id) WHERE deleted_at IS NULL;`,
	},
	{
		Name: "create_index_documents_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status);`,
	},
	{
		// Per-user hides: a viewer who cannot manage the document removes it
		// from their own view without touching the shared row.
		Name: "create_table_document_hides",
		SQL: `CREATE TABLE IF NOT EXISTS document_hides (
  document_id UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  user_id     TEXT        NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (document_id, user_id)
);`,
	},
	{
		Name: "create_table_recipients",
		SQL: `CREATE TABLE IF NOT EXISTS recipients (
  id            UUID    PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id   UUID    NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  email         TEXT    NOT NULL,
  name          TEXT    NOT NULL,
  role          TEXT    NOT NULL CHECK (role IN ('SIGNER', 'APPROVER', 'VIEWER', 'CC')),
  token         TEXT    NOT NULL UNIQUE,
  auth_options  JSONB   NULL,
  signing_order INTEGER NOT NULL DEFAULT 0
);`,
	},
	{
		Name: "create_index_recipients_document",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_recipients_document ON recipients (document_id);`,
	},
	{
		Name: "create_table_fields",
		SQL: `CREATE TABLE IF NOT EXISTS fields (
  id                   UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id          UUID NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  recipient_id         UUID NOT NULL REFERENCES recipients (id) ON DELETE CASCADE,
  type                 TEXT NOT NULL,
  signature_image_path TEXT NOT NULL DEFAULT ''
);`,
	},
	{
		Name: "create_index_fields_document",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_fields_document ON fields (document_id);`,
	},
	{
		// No FK on document_id: the trail must survive a hard delete.
		Name: "create_table_audit_logs",
		SQL: `CREATE TABLE IF NOT EXISTS audit_logs (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id  UUID        NOT NULL,
  type         TEXT        NOT NULL,
  recipient_id UUID        NULL,
  actor_id     TEXT        NOT NULL DEFAULT '',
  reason       TEXT        NOT NULL DEFAULT '',
  ip_address   TEXT        NOT NULL DEFAULT '',
  user_agent   TEXT        NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_audit_logs_document",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_document ON audit_logs (document_id, created_at, id);`,
	},
	{
		Name: "create_index_audit_logs_recipient_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_logs_recipient_type ON audit_logs (recipient_id, type);`,
	},
}

// EnsureMigrated checks whether the core tables exist and runs the ordered
// migration steps when they don't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.audit_logs') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return fmt.Errorf("check schema: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_check",
			"status":      "up_to_date",
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			return fmt.Errorf("migration step %s: %w", step.Name, err)
		}
		logJSON(loc, map[string]any{
			"component": "database",
			"event":     "db_migration_step",
			"step":      step.Name,
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_check",
		"status":      "migrated",
		"steps":       len(steps),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func logJSON(loc *time.Location, fields map[string]any) {
	if loc == nil {
		loc = time.UTC
	}
	fields["ts"] = time.Now().In(loc).Format(time.RFC3339)
	b, err := json.Marshal(fields)
	if err != nil {
		log.Printf("migration log marshal: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(b))
}
