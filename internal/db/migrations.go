package db

import (
	"context"
	"fmt"
)

// RunMigrations runs database migrations. Every statement is idempotent.
//
// Vote, bookmark and view uniqueness lives in the schema so that a race
// between the existence check and the insert ends in a constraint error
// instead of a duplicate row.
func (r *Repository) RunMigrations(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT UNIQUE NOT NULL COLLATE NOCASE,
            username TEXT UNIQUE NOT NULL COLLATE NOCASE,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user',
            created_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS sessions (
            session_id TEXT PRIMARY KEY,
            user_id INTEGER NOT NULL,
            expires DATETIME NOT NULL,
            FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
        )`,
		`CREATE TABLE IF NOT EXISTS categories (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT UNIQUE NOT NULL,
            slug TEXT UNIQUE NOT NULL,
            question_count INTEGER NOT NULL DEFAULT 0 CHECK (question_count >= 0)
        )`,
		`CREATE TABLE IF NOT EXISTS tags (
            name TEXT PRIMARY KEY,
            question_count INTEGER NOT NULL DEFAULT 0 CHECK (question_count >= 0)
        )`,
		`CREATE TABLE IF NOT EXISTS questions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            author_id INTEGER NOT NULL,
            title TEXT NOT NULL,
            body TEXT NOT NULL,
            slug TEXT UNIQUE NOT NULL,
            category_id INTEGER,
            status TEXT NOT NULL DEFAULT 'open',
            vote_count INTEGER NOT NULL DEFAULT 0,
            view_count INTEGER NOT NULL DEFAULT 0 CHECK (view_count >= 0),
            bookmark_count INTEGER NOT NULL DEFAULT 0 CHECK (bookmark_count >= 0),
            answer_count INTEGER NOT NULL DEFAULT 0 CHECK (answer_count >= 0),
            accepted_answer_id INTEGER,
            is_closed BOOLEAN NOT NULL DEFAULT 0,
            close_reason TEXT NOT NULL DEFAULT '',
            closed_at DATETIME,
            bounty_amount INTEGER NOT NULL DEFAULT 0,
            bounty_expires_at DATETIME,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            edited_at DATETIME,
            last_activity_at DATETIME NOT NULL,
            FOREIGN KEY (author_id) REFERENCES users(id),
            FOREIGN KEY (category_id) REFERENCES categories(id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_questions_created ON questions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_author ON questions(author_id)`,
		`CREATE TABLE IF NOT EXISTS question_tags (
            question_id INTEGER NOT NULL,
            tag TEXT NOT NULL,
            PRIMARY KEY (question_id, tag),
            FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE,
            FOREIGN KEY (tag) REFERENCES tags(name)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_question_tags_tag ON question_tags(tag)`,
		`CREATE TABLE IF NOT EXISTS answers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            question_id INTEGER NOT NULL,
            author_id INTEGER NOT NULL,
            body TEXT NOT NULL,
            vote_count INTEGER NOT NULL DEFAULT 0,
            is_accepted BOOLEAN NOT NULL DEFAULT 0,
            accepted_at DATETIME,
            comment_count INTEGER NOT NULL DEFAULT 0 CHECK (comment_count >= 0),
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            edited_at DATETIME,
            FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE,
            FOREIGN KEY (author_id) REFERENCES users(id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_answers_question ON answers(question_id)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_author ON answers(author_id)`,
		// At most one accepted answer per question, whatever the application does.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_one_accepted ON answers(question_id) WHERE is_accepted = 1`,
		`CREATE TABLE IF NOT EXISTS votes (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            target_type TEXT NOT NULL CHECK (target_type IN ('question', 'answer')),
            target_id INTEGER NOT NULL,
            voter_id INTEGER NOT NULL,
            type INTEGER NOT NULL CHECK (type IN (-1, 1)),
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            UNIQUE (target_type, target_id, voter_id),
            FOREIGN KEY (voter_id) REFERENCES users(id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_votes_voter ON votes(voter_id)`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            question_id INTEGER NOT NULL,
            user_id INTEGER NOT NULL,
            created_at DATETIME NOT NULL,
            UNIQUE (question_id, user_id),
            FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE,
            FOREIGN KEY (user_id) REFERENCES users(id)
        )`,
		`CREATE TABLE IF NOT EXISTS views (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            question_id INTEGER NOT NULL,
            user_id INTEGER,
            anonymous_id TEXT,
            created_at DATETIME NOT NULL,
            CHECK (user_id IS NULL OR anonymous_id IS NULL),
            FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_views_user ON views(question_id, user_id) WHERE user_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_views_anonymous ON views(question_id, anonymous_id) WHERE anonymous_id IS NOT NULL`,
		`CREATE TABLE IF NOT EXISTS comments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            answer_id INTEGER NOT NULL,
            author_id INTEGER NOT NULL,
            body TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            FOREIGN KEY (answer_id) REFERENCES answers(id) ON DELETE CASCADE,
            FOREIGN KEY (author_id) REFERENCES users(id)
        )`,
		`CREATE INDEX IF NOT EXISTS idx_comments_answer ON comments(answer_id)`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL,
            type TEXT NOT NULL,
            from_user_id INTEGER,
            question_id INTEGER,
            answer_id INTEGER,
            created_at DATETIME NOT NULL,
            is_read BOOLEAN NOT NULL DEFAULT 0,
            FOREIGN KEY (user_id) REFERENCES users(id),
            FOREIGN KEY (from_user_id) REFERENCES users(id)
        )`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Add initial categories
	categories := []struct{ name, slug string }{
		{"Programming", "programming"},
		{"Automotive", "automotive"},
		{"General", "general"},
	}
	for _, cat := range categories {
		if _, err := r.db.ExecContext(ctx, "INSERT OR IGNORE INTO categories (name, slug) VALUES (?, ?)", cat.name, cat.slug); err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
	}

	return nil
}
