package migrations

import "skilltrends/common/database/schema"

// All lists every migration in version order.
func All() []schema.Migration {
	return []schema.Migration{
		CreateJobPostingsTable,
	}
}
