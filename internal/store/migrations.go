package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create invocations",
		SQL: `
			CREATE TABLE invocations (
				id           TEXT PRIMARY KEY,
				tool         TEXT NOT NULL DEFAULT '',
				args         TEXT NOT NULL,
				exit_code    INTEGER NOT NULL,
				stdout_bytes INTEGER NOT NULL DEFAULT 0,
				stderr       TEXT NOT NULL DEFAULT '',
				error        TEXT NOT NULL DEFAULT '',
				duration_ms  INTEGER NOT NULL DEFAULT 0,
				created_at   TEXT NOT NULL
			);

			CREATE INDEX idx_invocations_tool ON invocations (tool, created_at);
			CREATE INDEX idx_invocations_created ON invocations (created_at);
		`,
	},
}
