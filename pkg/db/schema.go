package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- User corrections: most-recent-wins per element signature
CREATE TABLE IF NOT EXISTS user_corrections (
    signature      TEXT PRIMARY KEY,
    detected_type  TEXT NOT NULL,
    corrected_type TEXT NOT NULL,
    signals_json   TEXT NOT NULL DEFAULT '{}',
    created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Learning log: append-only correction history, bounded by the store
CREATE TABLE IF NOT EXISTS learning_log (
    entry_id       INTEGER PRIMARY KEY AUTOINCREMENT,
    signature      TEXT NOT NULL,
    detected_type  TEXT NOT NULL,
    corrected_type TEXT NOT NULL,
    signals_json   TEXT NOT NULL DEFAULT '{}',
    created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_learning_log_created ON learning_log(created_at);

-- Custom site rules: one YAML document per hostname pattern
CREATE TABLE IF NOT EXISTS custom_site_rules (
    pattern    TEXT PRIMARY KEY,
    rule_yaml  TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`
