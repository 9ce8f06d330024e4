package repositories

import (
	"time"

	"darsly/internal/utils"
)

// instrument times a query and records its outcome in the shared DB metrics.
// Call the returned func with whether the query failed.
func instrument(queryType, repository string) func(failed bool) {
	start := time.Now()
	return func(failed bool) {
		status := "success"
		if failed {
			status = "error"
			utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		}
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, status).Observe(time.Since(start).Seconds())
	}
}
