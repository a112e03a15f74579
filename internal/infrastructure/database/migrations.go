package database

// Migration is one ordered schema step
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

var sqliteMigrations = []Migration{
	{
		Version:     1,
		Description: "flagged entities",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS flagged_entities (
				profile_id TEXT NOT NULL,
				entity_id  TEXT NOT NULL,
				kind       TEXT NOT NULL,
				risk_score INTEGER NOT NULL CHECK (risk_score BETWEEN 0 AND 10),
				source     TEXT NOT NULL,
				source_ref TEXT NOT NULL DEFAULT '',
				first_seen TEXT NOT NULL,
				last_seen  TEXT NOT NULL,
				notes      TEXT NOT NULL DEFAULT '[]',
				PRIMARY KEY (profile_id, entity_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_flagged_entities_first_seen ON flagged_entities(profile_id, first_seen)`,
		},
	},
	{
		Version:     2,
		Description: "kind index for profile summaries",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_flagged_entities_kind ON flagged_entities(profile_id, kind)`,
		},
	},
}

// PostgresSchema is idempotent and applied on every start
var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS flagged_entities (
		seq        BIGSERIAL,
		profile_id TEXT NOT NULL,
		entity_id  TEXT NOT NULL,
		kind       TEXT NOT NULL,
		risk_score SMALLINT NOT NULL CHECK (risk_score BETWEEN 0 AND 10),
		source     TEXT NOT NULL,
		source_ref TEXT NOT NULL DEFAULT '',
		first_seen TIMESTAMPTZ NOT NULL,
		last_seen  TIMESTAMPTZ NOT NULL,
		notes      TEXT[] NOT NULL DEFAULT '{}',
		PRIMARY KEY (profile_id, entity_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_flagged_entities_first_seen ON flagged_entities(profile_id, first_seen, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_flagged_entities_kind ON flagged_entities(profile_id, kind)`,
}
