package repository

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations must stay ordered by version.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS objectives (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	owner_id    INTEGER NOT NULL,
	objective   TEXT NOT NULL,
	key_result  TEXT,
	priority    TEXT NOT NULL DEFAULT 'Medium' CHECK(priority IN ('Low', 'Medium', 'High')),
	status      TEXT NOT NULL DEFAULT 'Active' CHECK(status IN ('Active', 'In Progress', 'Completed')),
	progress    INTEGER NOT NULL DEFAULT 0 CHECK(progress BETWEEN 0 AND 100),
	duedate     TEXT,
	category    TEXT NOT NULL DEFAULT 'General',
	version     INTEGER NOT NULL DEFAULT 1,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS progress_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	goal_id       INTEGER NOT NULL REFERENCES objectives(id) ON DELETE CASCADE,
	key_index     INTEGER NOT NULL,
	key_result_id TEXT NOT NULL DEFAULT '',
	progress      INTEGER NOT NULL CHECK(progress BETWEEN 0 AND 100),
	noted_at      DATETIME NOT NULL,
	noted_by      INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_objectives_owner ON objectives(owner_id);
CREATE INDEX IF NOT EXISTS idx_progress_log_goal ON progress_log(goal_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_objectives_owner_category
	ON objectives(owner_id, category);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
