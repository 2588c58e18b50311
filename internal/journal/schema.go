package journal

const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	decision_id TEXT PRIMARY KEY,
	decided_at DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	entry_price REAL NOT NULL,
	stop_distance_pct REAL NOT NULL,
	confidence REAL NOT NULL,
	requested_leverage REAL NOT NULL,
	approved INTEGER NOT NULL,
	reason TEXT NOT NULL,
	quantity REAL NOT NULL,
	leverage REAL NOT NULL,
	margin REAL NOT NULL,
	stop_price REAL NOT NULL,
	stop_type TEXT NOT NULL,
	score REAL NOT NULL,
	safety_level TEXT NOT NULL,
	factors TEXT NOT NULL,
	conflicting TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_time ON decisions(decided_at);
CREATE INDEX IF NOT EXISTS idx_decisions_symbol ON decisions(symbol);
`
