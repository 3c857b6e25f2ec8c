package store

import (
	"context"
	"database/sql"
)

type LocationStat struct {
	Location  string  `json:"location"`
	Count     int     `json:"count"`
	AvgSalary float64 `json:"avgSalary"` // midpoint average over rows with a parsed range
}

// LocationAnalysis is the top-locations summary fed into the run report:
// listing count per location plus the average parsed salary midpoint.
func LocationAnalysis(ctx context.Context, db *sql.DB) ([]LocationStat, error) {
	rows, err := db.QueryContext(ctx, `
SELECT location,
       COUNT(*) AS n,
       AVG((salary_min + salary_max) / 2.0) AS avg_salary
FROM listings
WHERE location != ''
GROUP BY location
ORDER BY n DESC
LIMIT 10;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LocationStat
	for rows.Next() {
		var s LocationStat
		var avg sql.NullFloat64
		if err := rows.Scan(&s.Location, &s.Count, &avg); err != nil {
			return nil, err
		}
		s.AvgSalary = avg.Float64
		out = append(out, s)
	}
	return out, rows.Err()
}
