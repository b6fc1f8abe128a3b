package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aivy-app/aivy-backend/internal/platform/logger"
)

// Tests run against in-memory sqlite. The production schema leans on
// postgres defaults (uuid_generate_v4, now()), so tables are created here
// explicitly; repos fill ids and gorm fills timestamps client-side either
// way.
var testSchema = []string{
	`CREATE TABLE user (
		id text PRIMARY KEY,
		name text NOT NULL,
		email text NOT NULL UNIQUE,
		password text NOT NULL,
		streak integer NOT NULL DEFAULT 0,
		coins integer NOT NULL DEFAULT 0,
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`,
	`CREATE TABLE user_token (
		id text PRIMARY KEY,
		user_id text NOT NULL,
		refresh_token text NOT NULL,
		expires_at datetime NOT NULL,
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`,
	`CREATE TABLE space (
		id text PRIMARY KEY,
		user_id text NOT NULL,
		name text NOT NULL,
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`,
	`CREATE UNIQUE INDEX idx_space_user_name ON space(user_id, name)`,
	`CREATE TABLE thread (
		id text PRIMARY KEY,
		user_id text NOT NULL,
		space_id text NOT NULL,
		title text NOT NULL DEFAULT 'New Chat',
		metadata text NOT NULL DEFAULT '{}',
		last_message_at datetime,
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`,
	`CREATE TABLE checkpoint (
		id text PRIMARY KEY,
		thread_id text NOT NULL,
		seq integer NOT NULL,
		messages text NOT NULL DEFAULT '[]',
		metadata text NOT NULL DEFAULT '{}',
		created_at datetime
	)`,
	`CREATE UNIQUE INDEX idx_checkpoint_thread_seq ON checkpoint(thread_id, seq)`,
	`CREATE TABLE document (
		id text PRIMARY KEY,
		user_id text NOT NULL,
		space_id text NOT NULL,
		thread_id text,
		name text NOT NULL,
		text text NOT NULL,
		embedding text NOT NULL DEFAULT '[]',
		source text NOT NULL DEFAULT 'upload',
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`,
	`CREATE TABLE topic (
		id text PRIMARY KEY,
		user_id text NOT NULL,
		name text NOT NULL,
		level text NOT NULL DEFAULT 'Learning',
		related_threads text NOT NULL DEFAULT '[]',
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`,
	`CREATE UNIQUE INDEX idx_topic_user_name ON topic(user_id, name)`,
	`CREATE TABLE flashcard (
		id text PRIMARY KEY,
		user_id text NOT NULL,
		space_id text NOT NULL,
		topic text NOT NULL,
		question text NOT NULL,
		options text NOT NULL,
		correct_option integer NOT NULL,
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`,
	`CREATE TABLE pet (
		id text PRIMARY KEY,
		user_id text NOT NULL UNIQUE,
		name text NOT NULL,
		color text NOT NULL,
		happiness_level integer NOT NULL DEFAULT 0,
		energy_level integer NOT NULL DEFAULT 50,
		created_at datetime,
		updated_at datetime,
		deleted_at datetime
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: gives every pooled connection its own database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range testSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	require.NoError(t, err)
	t.Cleanup(log.Sync)
	return log
}
