package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database"
)

var ErrInvalidOrderBy = fmt.Errorf("order_by must be one of 'measure' or 'sensor'")

// OrderBy selects the primary ranking metric for the pollution view.
type OrderBy string

const (
	OrderByMeasure OrderBy = "measure"
	OrderBySensor  OrderBy = "sensor"
)

type PollutionRow struct {
	Rank         int     `json:"rank"`
	DistrictID   uint    `json:"id_arrondissement"`
	DistrictName string  `json:"nom"`
	AvgByMeasure float64 `json:"avg_by_measure"`
	AvgBySensor  float64 `json:"avg_by_sensor"`
	SensorCount  int     `json:"nb_capteurs"`
	MeasureCount int     `json:"nb_mesures"`
}

type AvailabilityRow struct {
	DistrictID   uint    `json:"id_arrondissement"`
	DistrictName string  `json:"nom"`
	PctActive    float64 `json:"pct_active"`
}

type PredictiveSummary struct {
	Count         int     `json:"nb_predictives"`
	TotalCO2Saved float64 `json:"total_co2_saved"`
}

type Analytics interface {
	PollutionRanking(ctx context.Context, pollutant string, topN int, orderBy OrderBy) ([]PollutionRow, error)
	AvailabilityRanking(ctx context.Context) ([]AvailabilityRow, error)
	PredictiveThisMonth(ctx context.Context) (PredictiveSummary, error)
}

type analytics struct {
	db  *gorm.DB
	now func() time.Time
}

// New builds the aggregation engine on the tables owned by the entity
// repositories. It performs no migrations of its own.
func New(connect database.ConnectorFunc) (Analytics, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	return &analytics{db: impl, now: time.Now}, nil
}

// latestStatusCTE resolves each sensor's current status: the history
// entry with the highest timestamp wins, the static column is the
// fallback. Expressed as a grouped-max join so it runs on both the
// postgres and sqlite connectors. Entries tied on the timestamp are
// broken by the higher id, so the join yields exactly one row per
// sensor.
const latestStatusCTE = `
	latest AS (
		SELECT e.sensor_uuid, e.status
		FROM status_entries e
		JOIN (
			SELECT e2.sensor_uuid, MAX(e2.id) AS max_id
			FROM status_entries e2
			JOIN (
				SELECT sensor_uuid, MAX(ts) AS max_ts
				FROM status_entries
				GROUP BY sensor_uuid
			) m ON m.sensor_uuid = e2.sensor_uuid AND m.max_ts = e2.ts
			GROUP BY e2.sensor_uuid
		) pick ON pick.max_id = e.id
	)`

const pollutionSQL = `
	WITH` + latestStatusCTE + `,
	per_sensor AS (
		SELECT s.district_id AS district_id,
		       m.sensor_uuid AS sensor_uuid,
		       AVG(m.value) AS sensor_avg,
		       SUM(m.value) AS value_sum,
		       COUNT(*) AS nb
		FROM measurements m
		JOIN sensors s ON s.uuid = m.sensor_uuid
		LEFT JOIN latest l ON l.sensor_uuid = s.uuid
		WHERE m.pollutant = ?
		  AND m.ts >= ?
		  AND s.district_id IS NOT NULL
		  AND COALESCE(l.status, s.status) = 'active'
		GROUP BY s.district_id, m.sensor_uuid
	)
	SELECT d.id AS district_id,
	       d.name AS district_name,
	       SUM(p.value_sum) AS value_sum,
	       SUM(p.nb) AS measure_count,
	       SUM(p.sensor_avg) AS sensor_avg_sum,
	       COUNT(p.sensor_uuid) AS sensor_count
	FROM per_sensor p
	JOIN districts d ON d.id = p.district_id
	GROUP BY d.id, d.name`

type pollutionAggregate struct {
	DistrictID   uint
	DistrictName string
	ValueSum     float64
	MeasureCount int
	SensorAvgSum float64
	SensorCount  int
}

// PollutionRanking ranks districts by average pollution over the
// trailing 24 hours, counting only measurements from sensors whose
// resolved status is active. avg_by_measure weighs every measurement
// equally, avg_by_sensor weighs every sensor equally. Districts with
// no matching measurements are omitted.
func (a *analytics) PollutionRanking(ctx context.Context, pollutant string, topN int, orderBy OrderBy) ([]PollutionRow, error) {
	if orderBy != OrderByMeasure && orderBy != OrderBySensor {
		return nil, ErrInvalidOrderBy
	}

	cutoff := a.now().UTC().Add(-24 * time.Hour)

	var aggregates []pollutionAggregate
	err := a.db.WithContext(ctx).Raw(pollutionSQL, pollutant, cutoff).Scan(&aggregates).Error
	if err != nil {
		return nil, err
	}

	rows := make([]PollutionRow, 0, len(aggregates))
	for _, agg := range aggregates {
		rows = append(rows, PollutionRow{
			DistrictID:   agg.DistrictID,
			DistrictName: agg.DistrictName,
			AvgByMeasure: round2(agg.ValueSum / float64(agg.MeasureCount)),
			AvgBySensor:  round2(agg.SensorAvgSum / float64(agg.SensorCount)),
			SensorCount:  agg.SensorCount,
			MeasureCount: agg.MeasureCount,
		})
	}

	metric := func(row PollutionRow) float64 {
		if orderBy == OrderBySensor {
			return row.AvgBySensor
		}
		return row.AvgByMeasure
	}

	sort.Slice(rows, func(i, j int) bool {
		if metric(rows[i]) != metric(rows[j]) {
			return metric(rows[i]) > metric(rows[j])
		}
		if rows[i].MeasureCount != rows[j].MeasureCount {
			return rows[i].MeasureCount > rows[j].MeasureCount
		}
		return rows[i].DistrictID < rows[j].DistrictID
	})

	if topN >= 0 && len(rows) > topN {
		rows = rows[:topN]
	}

	for i := range rows {
		rows[i].Rank = i + 1
	}

	return rows, nil
}

const availabilitySQL = `
	WITH` + latestStatusCTE + `
	SELECT d.id AS district_id,
	       d.name AS district_name,
	       COUNT(s.uuid) AS total,
	       COALESCE(SUM(CASE WHEN COALESCE(l.status, s.status) = 'active' THEN 1 ELSE 0 END), 0) AS active
	FROM districts d
	LEFT JOIN sensors s ON s.district_id = d.id
	LEFT JOIN latest l ON l.sensor_uuid = s.uuid
	GROUP BY d.id, d.name`

type availabilityAggregate struct {
	DistrictID   uint
	DistrictName string
	Total        int
	Active       int
}

// AvailabilityRanking reports the share of active sensors per district.
// Districts without sensors are included at 0% rather than dropped, so
// the view shows where coverage is missing entirely.
func (a *analytics) AvailabilityRanking(ctx context.Context) ([]AvailabilityRow, error) {
	var aggregates []availabilityAggregate
	err := a.db.WithContext(ctx).Raw(availabilitySQL).Scan(&aggregates).Error
	if err != nil {
		return nil, err
	}

	rows := make([]AvailabilityRow, 0, len(aggregates))
	for _, agg := range aggregates {
		pct := 0.0
		if agg.Total > 0 {
			pct = round2(100 * float64(agg.Active) / float64(agg.Total))
		}
		rows = append(rows, AvailabilityRow{
			DistrictID:   agg.DistrictID,
			DistrictName: agg.DistrictName,
			PctActive:    pct,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PctActive != rows[j].PctActive {
			return rows[i].PctActive > rows[j].PctActive
		}
		return rows[i].DistrictID < rows[j].DistrictID
	})

	return rows, nil
}

const predictiveSQL = `
	SELECT COUNT(*) AS count,
	       COALESCE(SUM(co2_impact), 0) AS total_co2_saved
	FROM interventions
	WHERE nature = 'predictive'
	  AND occurred_at >= ?
	  AND occurred_at < ?`

type predictiveAggregate struct {
	Count         int
	TotalCO2Saved float64
}

// PredictiveThisMonth rolls up predictive interventions for the current
// UTC calendar month, from the first instant of the month up to but
// excluding the first instant of the next.
func (a *analytics) PredictiveThisMonth(ctx context.Context) (PredictiveSummary, error) {
	start, end := monthBounds(a.now())

	var agg predictiveAggregate
	err := a.db.WithContext(ctx).Raw(predictiveSQL, start, end).Scan(&agg).Error
	if err != nil {
		return PredictiveSummary{}, err
	}

	return PredictiveSummary{Count: agg.Count, TotalCO2Saved: agg.TotalCO2Saved}, nil
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
