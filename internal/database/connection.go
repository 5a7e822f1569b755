package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. A postgres DSN in
// DATABASE_URL takes precedence; otherwise a local sqlite file is used.
func Connect() error {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %v", err)
		}
		DB = db
		return initializeSchema()
	}

	// Create data directory if it doesn't exist
	dataDir := "data"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dataDir, "coursebot.db")
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	// Enable foreign keys
	if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	statements := []struct {
		name  string
		query string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				telegram_id BIGINT UNIQUE NOT NULL,
				username TEXT DEFAULT '',
				first_name TEXT DEFAULT '',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"courses", `
			CREATE TABLE IF NOT EXISTS courses (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				description TEXT DEFAULT '',
				duration_days INTEGER DEFAULT 5,
				start_message TEXT DEFAULT '',
				finish_message TEXT DEFAULT '',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"lessons", `
			CREATE TABLE IF NOT EXISTS lessons (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				course_id INTEGER NOT NULL,
				day_number INTEGER DEFAULT 1,
				send_time TEXT DEFAULT '10:00',
				lesson_type TEXT DEFAULT 'theory',
				text TEXT DEFAULT '',
				image TEXT DEFAULT '',
				audio TEXT DEFAULT '',
				video_note TEXT DEFAULT '',
				document TEXT DEFAULT '',
				quiz_options TEXT DEFAULT '',
				correct_answer TEXT DEFAULT '',
				error_feedback TEXT DEFAULT '',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (course_id) REFERENCES courses(id)
			)`},
		{"enrollments", `
			CREATE TABLE IF NOT EXISTS enrollments (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				course_id INTEGER NOT NULL,
				start_date TIMESTAMP NOT NULL,
				current_day INTEGER DEFAULT 1,
				is_active BOOLEAN DEFAULT true,
				FOREIGN KEY (user_id) REFERENCES users(id),
				FOREIGN KEY (course_id) REFERENCES courses(id),
				UNIQUE(user_id, course_id)
			)`},
		{"user_progress", `
			CREATE TABLE IF NOT EXISTS user_progress (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				lesson_id INTEGER NOT NULL,
				sent_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				completed_at TIMESTAMP,
				FOREIGN KEY (user_id) REFERENCES users(id),
				FOREIGN KEY (lesson_id) REFERENCES lessons(id),
				UNIQUE(user_id, lesson_id)
			)`},
		{"access_codes", `
			CREATE TABLE IF NOT EXISTS access_codes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				code TEXT UNIQUE NOT NULL,
				is_active BOOLEAN DEFAULT true,
				activated_by INTEGER,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (activated_by) REFERENCES users(id)
			)`},
		{"access_code_courses", `
			CREATE TABLE IF NOT EXISTS access_code_courses (
				code_id INTEGER NOT NULL,
				course_id INTEGER NOT NULL,
				FOREIGN KEY (code_id) REFERENCES access_codes(id),
				FOREIGN KEY (course_id) REFERENCES courses(id),
				UNIQUE(code_id, course_id)
			)`},
		{"faq_items", `
			CREATE TABLE IF NOT EXISTS faq_items (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				question TEXT NOT NULL,
				answer TEXT DEFAULT '',
				sort_order INTEGER DEFAULT 0,
				is_visible BOOLEAN DEFAULT true
			)`},
		{"bot_messages", `
			CREATE TABLE IF NOT EXISTS bot_messages (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				slug TEXT UNIQUE NOT NULL,
				text TEXT DEFAULT '',
				description TEXT DEFAULT ''
			)`},
		{"bot_settings", `
			CREATE TABLE IF NOT EXISTS bot_settings (
				key TEXT PRIMARY KEY,
				value TEXT DEFAULT ''
			)`},
	}

	for _, stmt := range statements {
		query := stmt.query
		// Rewrite the sqlite DDL dialect for postgres if needed
		if DB.DriverName() == "postgres" {
			query = strings.Replace(query, "INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY", 1)
		}
		if _, err := DB.Exec(query); err != nil {
			return fmt.Errorf("failed to create %s table: %v", stmt.name, err)
		}
	}
	return nil
}
