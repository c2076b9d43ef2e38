package sqlite

// Applied on startup. Additive only; jobs are never deleted and snapshots
// are append-only, so there is no migration machinery.
const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ciphertext TEXT NOT NULL UNIQUE,
	source_uid TEXT,
	title TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	created_on TEXT,
	published_on TEXT,
	first_seen_at TEXT NOT NULL,
	last_seen_at TEXT NOT NULL,
	job_type TEXT NOT NULL,
	duration TEXT,
	engagement TEXT,
	fixed_budget REAL,
	hourly_min REAL,
	hourly_max REAL,
	tier TEXT NOT NULL,
	proposals_band TEXT,
	is_premium INTEGER NOT NULL DEFAULT 0,
	freelancers_to_hire INTEGER NOT NULL DEFAULT 1,
	is_applied INTEGER NOT NULL DEFAULT 0,
	client_country TEXT,
	client_payment_verified INTEGER NOT NULL DEFAULT 0,
	client_total_spent REAL,
	client_total_reviews INTEGER NOT NULL DEFAULT 0,
	client_total_feedback REAL,
	client_quality_score REAL NOT NULL DEFAULT 0,
	source_url TEXT,
	search_query TEXT,
	job_status TEXT,
	total_hired INTEGER,
	total_applicants INTEGER,
	total_invited INTEGER,
	invitations_sent INTEGER,
	unanswered_invites INTEGER,
	last_buyer_activity TEXT
);

CREATE INDEX IF NOT EXISTS idx_jobs_created_on ON jobs (created_on);
CREATE INDEX IF NOT EXISTS idx_jobs_first_seen ON jobs (first_seen_at);
CREATE INDEX IF NOT EXISTS idx_jobs_tier ON jobs (tier);
CREATE INDEX IF NOT EXISTS idx_jobs_country ON jobs (client_country);

CREATE TABLE IF NOT EXISTS skills (
	uid TEXT PRIMARY KEY,
	label TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS job_skills (
	job_id INTEGER NOT NULL REFERENCES jobs (id),
	skill_uid TEXT NOT NULL REFERENCES skills (uid),
	is_highlighted INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (job_id, skill_uid)
);

CREATE TABLE IF NOT EXISTS job_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	job_id INTEGER NOT NULL REFERENCES jobs (id),
	snapshot_at TEXT NOT NULL,
	proposals_band TEXT,
	freelancers_to_hire INTEGER NOT NULL DEFAULT 1,
	is_applied INTEGER NOT NULL DEFAULT 0,
	total_hired INTEGER,
	total_applicants INTEGER
);

CREATE INDEX IF NOT EXISTS idx_snapshots_job ON job_snapshots (job_id, snapshot_at);

CREATE TABLE IF NOT EXISTS user_profile (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	skills TEXT NOT NULL DEFAULT '[]',
	hourly_rate REAL,
	preferred_tiers TEXT NOT NULL DEFAULT '[]',
	min_budget REAL,
	api_key TEXT
);

CREATE TABLE IF NOT EXISTS daily_stats (
	date TEXT PRIMARY KEY,
	total_jobs INTEGER NOT NULL DEFAULT 0,
	new_jobs INTEGER NOT NULL DEFAULT 0,
	avg_fixed_budget REAL,
	top_skills TEXT NOT NULL DEFAULT '{}',
	tier_breakdown TEXT NOT NULL DEFAULT '{}'
);
`
