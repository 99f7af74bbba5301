package docstore

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// sqliteMigrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var sqliteMigrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	path        TEXT PRIMARY KEY,
	collection  TEXT NOT NULL,
	id          TEXT NOT NULL,
	data        TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
