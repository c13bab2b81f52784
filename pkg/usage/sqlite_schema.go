package usage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the usage table. Times are stored as Unix nanoseconds and
// latency as nanoseconds so both drivers read them back identically.
const Schema = `
CREATE TABLE IF NOT EXISTS usage_records (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    backend TEXT NOT NULL,
    model TEXT NOT NULL,
    status TEXT NOT NULL,
    attempt INTEGER NOT NULL,
    stream BOOLEAN NOT NULL DEFAULT 0,

    prompt_tokens INTEGER NOT NULL DEFAULT 0,
    completion_tokens INTEGER NOT NULL DEFAULT 0,
    total_tokens INTEGER NOT NULL DEFAULT 0,
    cost REAL NOT NULL DEFAULT 0,

    latency_ns INTEGER NOT NULL DEFAULT 0,
    error TEXT,
    recorded_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_recorded_at ON usage_records(recorded_at);
CREATE INDEX IF NOT EXISTS idx_usage_backend ON usage_records(backend);
CREATE INDEX IF NOT EXISTS idx_usage_request_id ON usage_records(request_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertRecord = `
INSERT INTO usage_records (
    id, request_id, backend, model, status, attempt, stream,
    prompt_tokens, completion_tokens, total_tokens, cost,
    latency_ns, error, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectRecords = `
SELECT id, request_id, backend, model, status, attempt, stream,
    prompt_tokens, completion_tokens, total_tokens, cost,
    latency_ns, error, recorded_at
FROM usage_records`

const selectSummary = `
SELECT backend,
    COUNT(*),
    COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(prompt_tokens), 0),
    COALESCE(SUM(completion_tokens), 0),
    COALESCE(SUM(total_tokens), 0),
    COALESCE(SUM(cost), 0),
    AVG(CASE WHEN status = 'success' THEN latency_ns END)
FROM usage_records`
