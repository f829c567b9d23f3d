package postgres

// GetMigrations returns all embedded migrations in apply order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_lessons", UpSQL: migration001Up},
		{Version: 2, Name: "create_learners", UpSQL: migration002Up},
		{Version: 3, Name: "create_community_posts", UpSQL: migration003Up},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE LESSONS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create lessons and paths tables
-- Version: 001

-- Learning paths (e.g. "arduino-intro", "sensors"). Path membership is the
-- unit of completion: a learner finishes a path by finishing all its lessons.
CREATE TABLE IF NOT EXISTS paths (
    id VARCHAR(100) PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Lesson catalog. Lesson ids are external catalog ids managed by content
-- tooling; zero and negative values are legal, so no CHECK on id.
CREATE TABLE IF NOT EXISTS lessons (
    id INTEGER PRIMARY KEY,
    title VARCHAR(200) NOT NULL,
    required_tier VARCHAR(20) NOT NULL DEFAULT 'beginner',
    path_id VARCHAR(100) REFERENCES paths(id) ON DELETE SET NULL,
    position INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_lessons_path_id ON lessons(path_id);
CREATE INDEX IF NOT EXISTS idx_lessons_path_position ON lessons(path_id, position);
CREATE INDEX IF NOT EXISTS idx_lessons_required_tier ON lessons(required_tier);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE LEARNERS AND PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create learners and progress tables
-- Version: 002

CREATE TABLE IF NOT EXISTS learners (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(320) NOT NULL UNIQUE,
    display_name VARCHAR(100) NOT NULL,
    credential_hash VARCHAR(100) NOT NULL,
    tier VARCHAR(20) NOT NULL DEFAULT 'beginner',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_tier CHECK (tier IN ('beginner', 'intermediate', 'advanced'))
);

CREATE INDEX IF NOT EXISTS idx_learners_email ON learners(email);
CREATE INDEX IF NOT EXISTS idx_learners_updated_at ON learners(updated_at DESC);

-- One row per completed lesson. The primary key makes repeat completions a
-- conflict, which the repository treats as a no-op.
CREATE TABLE IF NOT EXISTS lesson_completions (
    learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    lesson_id INTEGER NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (learner_id, lesson_id)
);

CREATE INDEX IF NOT EXISTS idx_lesson_completions_learner ON lesson_completions(learner_id);

-- Derived path completion marks, persisted so unlock side effects fire once.
CREATE TABLE IF NOT EXISTS path_completions (
    learner_id UUID NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    path_id VARCHAR(100) NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (learner_id, path_id)
);

CREATE INDEX IF NOT EXISTS idx_path_completions_learner ON path_completions(learner_id);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE COMMUNITY POSTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create community_posts table
-- Version: 003

-- Scraped beginner questions from embedded-dev subreddits, already filtered
-- and themed by the classifier. The external post id keeps re-scrapes
-- idempotent.
CREATE TABLE IF NOT EXISTS community_posts (
    id VARCHAR(50) PRIMARY KEY,
    subreddit VARCHAR(100) NOT NULL,
    title TEXT NOT NULL,
    self_text TEXT NOT NULL DEFAULT '',
    score INTEGER NOT NULL DEFAULT 0,
    num_comments INTEGER NOT NULL DEFAULT 0,
    url TEXT NOT NULL,
    theme VARCHAR(50) NOT NULL,
    scraped_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_community_posts_theme ON community_posts(theme);
CREATE INDEX IF NOT EXISTS idx_community_posts_scraped_at ON community_posts(scraped_at DESC);
CREATE INDEX IF NOT EXISTS idx_community_posts_theme_scraped ON community_posts(theme, scraped_at DESC);
`
