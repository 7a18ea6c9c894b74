package optimize

import (
	"fmt"

	"github.com/agroscope/agroscope/pkg/table"
)

// PlantSeries returns the cost per plant for the single row in rows, in the
// declared plant order. Plants with an empty cost cell are left out, as in
// table.ArgMin; a row with no plant costs fails with table.ErrNoRows.
func PlantSeries(rows *table.Dataset, plants []string) (Series, error) {
	if err := single(rows); err != nil {
		return Series{}, err
	}
	s := Series{Title: "Cost per plant ($/ton)"}
	for _, p := range plants {
		v, err := rows.Value(0, p)
		if err != nil {
			return Series{}, err
		}
		if v.IsEmpty() {
			continue
		}
		f, err := rows.Number(0, p)
		if err != nil {
			return Series{}, err
		}
		s.Labels = append(s.Labels, p)
		s.Values = append(s.Values, f)
	}
	if s.Len() == 0 {
		return Series{}, fmt.Errorf("plant costs over %v: %w", plants, table.ErrNoRows)
	}
	return s, nil
}

// RegionAverages returns, for each region in first-seen order, the average
// cost per ton across plants: the mean of the per-plant column means over
// that region's rows.
func RegionAverages(buRows *table.Dataset, regionColumn string, plants []string) (Series, error) {
	regions, err := table.UniqueValues(buRows, regionColumn)
	if err != nil {
		return Series{}, err
	}
	if len(plants) == 0 {
		return Series{}, fmt.Errorf("region averages: no plants")
	}

	s := Series{Title: "Average cost per ton by region"}
	for _, region := range regions {
		rows, err := table.Filter(buRows, regionColumn, region)
		if err != nil {
			return Series{}, err
		}
		var sum float64
		for _, p := range plants {
			m, err := table.Aggregate(rows, p, table.OpMean)
			if err != nil {
				return Series{}, fmt.Errorf("region %s: %w", region, err)
			}
			sum += m
		}
		s.Labels = append(s.Labels, region)
		s.Values = append(s.Values, sum/float64(len(plants)))
	}
	return s, nil
}
