package cityregistry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed loads districts from a semicolon separated file of id;nom rows.
// Existing districts are left untouched so seeding is safe to repeat on
// every start.
func (r *sensorRegistry) Seed(ctx context.Context, reader io.Reader) error {
	cr := csv.NewReader(reader)
	cr.Comma = ';'

	rows, err := cr.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read csv data: %w", err)
	}

	districts := make([]District, 0, len(rows))

	for idx, row := range rows {
		if idx == 0 {
			// skip the header
			continue
		}

		if len(row) < 2 {
			return fmt.Errorf("malformed district row on line %d", idx+1)
		}

		id, err := strconv.ParseUint(row[0], 10, 32)
		if err != nil {
			return fmt.Errorf("failed to parse district id on line %d: %w", idx+1, err)
		}

		districts = append(districts, District{ID: uint(id), Name: row[1]})
	}

	if len(districts) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&districts).Error
	})
}
