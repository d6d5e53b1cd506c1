package database

type schemaStmt struct {
	name string
	sql  string
}

var sqliteSchema = []schemaStmt{
	{"users table", `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id INTEGER PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			notification_enabled BOOLEAN NOT NULL DEFAULT true,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			words_per_day INTEGER NOT NULL DEFAULT 20,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"words table", `
		CREATE TABLE IF NOT EXISTS words (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL UNIQUE,
			translation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{"items table", `
		CREATE TABLE IF NOT EXISTS items (
			user_id INTEGER NOT NULL,
			word_id INTEGER NOT NULL,
			stability REAL,
			difficulty REAL,
			retrievability REAL,
			elapsed_days INTEGER NOT NULL DEFAULT 0,
			interval_days INTEGER NOT NULL DEFAULT 0,
			step INTEGER,
			due TIMESTAMP,
			last_reviewed_at TIMESTAMP,
			last_quality INTEGER,
			state TEXT,
			PRIMARY KEY (user_id, word_id),
			FOREIGN KEY (word_id) REFERENCES words(id)
		)`},
	{"items due index", `CREATE INDEX IF NOT EXISTS items_user_due ON items (user_id, due)`},
	{"review_logs table", `
		CREATE TABLE IF NOT EXISTS review_logs (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			word_id INTEGER NOT NULL,
			grade INTEGER NOT NULL,
			state TEXT,
			reviewed_at TIMESTAMP NOT NULL,
			elapsed_days INTEGER NOT NULL,
			interval_days INTEGER NOT NULL,
			stability REAL NOT NULL,
			difficulty REAL NOT NULL,
			FOREIGN KEY (word_id) REFERENCES words(id)
		)`},
	{"review_logs item index", `CREATE INDEX IF NOT EXISTS review_logs_item ON review_logs (user_id, word_id, reviewed_at)`},
}

var postgresSchema = []schemaStmt{
	{"users table", `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			notification_enabled BOOLEAN NOT NULL DEFAULT true,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			words_per_day INTEGER NOT NULL DEFAULT 20,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"words table", `
		CREATE TABLE IF NOT EXISTS words (
			id BIGSERIAL PRIMARY KEY,
			text TEXT NOT NULL UNIQUE,
			translation TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"items table", `
		CREATE TABLE IF NOT EXISTS items (
			user_id BIGINT NOT NULL,
			word_id BIGINT NOT NULL REFERENCES words(id),
			stability DOUBLE PRECISION,
			difficulty DOUBLE PRECISION,
			retrievability DOUBLE PRECISION,
			elapsed_days INTEGER NOT NULL DEFAULT 0,
			interval_days INTEGER NOT NULL DEFAULT 0,
			step INTEGER,
			due TIMESTAMPTZ,
			last_reviewed_at TIMESTAMPTZ,
			last_quality SMALLINT,
			state TEXT,
			PRIMARY KEY (user_id, word_id)
		)`},
	{"items due index", `CREATE INDEX IF NOT EXISTS items_user_due ON items (user_id, due)`},
	{"review_logs table", `
		CREATE TABLE IF NOT EXISTS review_logs (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			word_id BIGINT NOT NULL REFERENCES words(id),
			grade SMALLINT NOT NULL,
			state TEXT,
			reviewed_at TIMESTAMPTZ NOT NULL,
			elapsed_days INTEGER NOT NULL,
			interval_days INTEGER NOT NULL,
			stability DOUBLE PRECISION NOT NULL,
			difficulty DOUBLE PRECISION NOT NULL
		)`},
	{"review_logs item index", `CREATE INDEX IF NOT EXISTS review_logs_item ON review_logs (user_id, word_id, reviewed_at)`},
}
