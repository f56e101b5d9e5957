package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA temp_store = MEMORY;

-- Workflows: one row per workflow, rewritten by the scraper on every extraction attempt
CREATE TABLE IF NOT EXISTS workflows (
    workflow_id TEXT PRIMARY KEY,         -- decimal integer stored as text
    layer1_success BOOLEAN NOT NULL DEFAULT 0,
    layer2_success BOOLEAN NOT NULL DEFAULT 0,
    layer3_success BOOLEAN NOT NULL DEFAULT 0,
    error_message TEXT,                   -- NULL when no phase failed
    quality_score REAL NOT NULL DEFAULT 0, -- 0-100
    extracted_at INTEGER NOT NULL         -- unix nanoseconds, UTC
);

CREATE INDEX IF NOT EXISTS idx_workflows_extracted ON workflows(extracted_at DESC);
`
