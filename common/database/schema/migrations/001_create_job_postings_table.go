package migrations

import "skilltrends/common/database/schema"

var CreateJobPostingsTable = schema.Migration{
	Version:     1,
	Description: "Create job_postings table",
	Up: `
		CREATE TABLE IF NOT EXISTS job_postings (
			job_id String,
			title String,
			company_name String,
			location String,
			via String,
			description String,
			description_tokens Array(String),
			schedule_type String,
			country String,
			experience_level String,
			salary_yearly Nullable(Float64),
			salary_min Nullable(Float64),
			salary_max Nullable(Float64),
			salary_text String,
			posted_at Nullable(DateTime),
			source String,
			ingested_at DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(ingested_at)
		ORDER BY (job_id)
		SETTINGS index_granularity = 8192
	`,
	Down: `DROP TABLE IF EXISTS job_postings`,
}
