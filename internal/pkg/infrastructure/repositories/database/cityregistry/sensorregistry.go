package cityregistry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database"
)

var (
	ErrSensorNotFound = fmt.Errorf("sensor not found")
	ErrOwnerNotFound  = fmt.Errorf("owner not found")
	ErrDuplicateEmail = fmt.Errorf("email already in use")
	ErrInvalidStatus  = fmt.Errorf("invalid sensor status")
	ErrInvalidUUID    = fmt.Errorf("invalid sensor uuid")
)

type SensorRegistry interface {
	CreateDistrict(ctx context.Context, district *District) error
	GetDistricts(ctx context.Context) ([]District, error)

	CreateOwner(ctx context.Context, owner *Owner) error
	GetOwners(ctx context.Context, skip, limit int) ([]Owner, error)
	GetOwnerByID(ctx context.Context, id uint64) (Owner, error)

	CreateSensor(ctx context.Context, sensor *Sensor) error
	GetSensors(ctx context.Context, skip, limit int) ([]Sensor, error)
	GetSensorByUUID(ctx context.Context, sensorUUID string) (Sensor, error)
	UpdateSensor(ctx context.Context, sensorUUID string, fields map[string]any) (Sensor, error)
	DeleteSensor(ctx context.Context, sensorUUID string) (bool, error)

	AddMeasurement(ctx context.Context, m *Measurement) error
	GetMeasurements(ctx context.Context, limit int) ([]Measurement, error)

	AddStatusEntry(ctx context.Context, e *StatusEntry) error
	ResolveStatuses(ctx context.Context) (map[string]SensorStatus, error)

	Seed(ctx context.Context, reader io.Reader) error
}

type sensorRegistry struct {
	db *gorm.DB
}

func NewSensorRegistry(connect database.ConnectorFunc) (SensorRegistry, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&District{}, &Owner{}, &Sensor{}, &StatusEntry{}, &Measurement{})
	if err != nil {
		return nil, err
	}

	return &sensorRegistry{db: impl}, nil
}

func (r *sensorRegistry) CreateDistrict(ctx context.Context, district *District) error {
	return r.db.WithContext(ctx).Create(district).Error
}

func (r *sensorRegistry) GetDistricts(ctx context.Context) ([]District, error) {
	var districts []District
	err := r.db.WithContext(ctx).Order("id").Find(&districts).Error
	return districts, err
}

func (r *sensorRegistry) CreateOwner(ctx context.Context, owner *Owner) error {
	if owner.Email != "" {
		var count int64
		r.db.WithContext(ctx).Model(&Owner{}).Where("email = ?", owner.Email).Count(&count)
		if count > 0 {
			return ErrDuplicateEmail
		}
	}

	err := r.db.WithContext(ctx).Create(owner).Error
	if err != nil && isUniqueViolation(err) {
		// a racing insert can still trip the constraint at commit time
		return ErrDuplicateEmail
	}

	return err
}

func (r *sensorRegistry) GetOwners(ctx context.Context, skip, limit int) ([]Owner, error) {
	var owners []Owner
	err := r.db.WithContext(ctx).Order("id").Offset(skip).Limit(limit).Find(&owners).Error
	return owners, err
}

func (r *sensorRegistry) GetOwnerByID(ctx context.Context, id uint64) (Owner, error) {
	var owner Owner
	err := r.db.WithContext(ctx).First(&owner, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Owner{}, ErrOwnerNotFound
		}
		return Owner{}, err
	}
	return owner, nil
}

func (r *sensorRegistry) CreateSensor(ctx context.Context, sensor *Sensor) error {
	if sensor.UUID == "" {
		sensor.UUID = uuid.NewString()
	} else if _, err := uuid.Parse(sensor.UUID); err != nil {
		return ErrInvalidUUID
	}

	if sensor.Status == "" {
		sensor.Status = StatusActive
	}
	if !sensor.Status.IsValid() {
		return ErrInvalidStatus
	}

	return r.db.WithContext(ctx).Create(sensor).Error
}

func (r *sensorRegistry) GetSensors(ctx context.Context, skip, limit int) ([]Sensor, error) {
	var sensors []Sensor
	err := r.db.WithContext(ctx).Order("uuid").Offset(skip).Limit(limit).Find(&sensors).Error
	return sensors, err
}

func (r *sensorRegistry) GetSensorByUUID(ctx context.Context, sensorUUID string) (Sensor, error) {
	var sensor Sensor
	err := r.db.WithContext(ctx).Where("uuid = ?", sensorUUID).First(&sensor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Sensor{}, ErrSensorNotFound
		}
		return Sensor{}, err
	}
	return sensor, nil
}

// UpdateSensor applies only the fields present in the request document.
// Unknown keys are ignored so that retried requests stay harmless.
func (r *sensorRegistry) UpdateSensor(ctx context.Context, sensorUUID string, fields map[string]any) (Sensor, error) {
	updates := map[string]any{}

	for key, value := range fields {
		switch key {
		case "type_capteur":
			updates["type"] = value
		case "latitude":
			updates["latitude"] = value
		case "longitude":
			updates["longitude"] = value
		case "statut":
			s, ok := value.(string)
			if !ok || !SensorStatus(s).IsValid() {
				return Sensor{}, ErrInvalidStatus
			}
			updates["status"] = s
		case "date_installation":
			s, ok := value.(string)
			if !ok {
				return Sensor{}, fmt.Errorf("date_installation is not a timestamp")
			}
			ts, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return Sensor{}, fmt.Errorf("date_installation is not a timestamp: %w", err)
			}
			updates["installed_at"] = ts
		case "id_proprietaire":
			updates["owner_id"] = value
		case "id_arrondissement":
			updates["district_id"] = value
		}
	}

	if len(updates) > 0 {
		result := r.db.WithContext(ctx).Model(&Sensor{}).Where("uuid = ?", sensorUUID).Updates(updates)
		if result.Error != nil {
			return Sensor{}, result.Error
		}
		if result.RowsAffected == 0 {
			return Sensor{}, ErrSensorNotFound
		}
	}

	return r.GetSensorByUUID(ctx, sensorUUID)
}

// DeleteSensor removes a sensor together with its measurements and
// status history. The bool reports whether a sensor row was removed.
func (r *sensorRegistry) DeleteSensor(ctx context.Context, sensorUUID string) (bool, error) {
	deleted := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("uuid = ?", sensorUUID).Delete(&Sensor{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		deleted = true

		err := tx.Where("sensor_uuid = ?", sensorUUID).Delete(&Measurement{}).Error
		if err != nil {
			return err
		}

		return tx.Where("sensor_uuid = ?", sensorUUID).Delete(&StatusEntry{}).Error
	})

	return deleted, err
}

func (r *sensorRegistry) AddMeasurement(ctx context.Context, m *Measurement) error {
	exists, err := r.sensorExists(ctx, m.SensorUUID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSensorNotFound
	}

	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Create(m).Error
}

func (r *sensorRegistry) GetMeasurements(ctx context.Context, limit int) ([]Measurement, error) {
	var measurements []Measurement
	err := r.db.WithContext(ctx).Order("ts DESC").Limit(limit).Find(&measurements).Error
	return measurements, err
}

func (r *sensorRegistry) AddStatusEntry(ctx context.Context, e *StatusEntry) error {
	if !e.Status.IsValid() {
		return ErrInvalidStatus
	}

	exists, err := r.sensorExists(ctx, e.SensorUUID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrSensorNotFound
	}

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	return r.db.WithContext(ctx).Create(e).Error
}

type resolvedStatus struct {
	UUID   string
	Status SensorStatus
}

const resolveStatusesSQL = `
	SELECT s.uuid AS uuid, COALESCE(h.status, s.status) AS status
	FROM sensors s
	LEFT JOIN (
		SELECT e.sensor_uuid, e.status
		FROM status_entries e
		JOIN (
			SELECT e2.sensor_uuid, MAX(e2.id) AS max_id
			FROM status_entries e2
			JOIN (
				SELECT sensor_uuid, MAX(ts) AS max_ts
				FROM status_entries
				GROUP BY sensor_uuid
			) latest ON latest.sensor_uuid = e2.sensor_uuid AND latest.max_ts = e2.ts
			GROUP BY e2.sensor_uuid
		) pick ON pick.max_id = e.id
	) h ON h.sensor_uuid = s.uuid
`

// ResolveStatuses derives the current status for the whole sensor
// population in one pass: the latest history entry wins, the static
// column is the fallback for sensors without history. Entries tied on
// the timestamp are broken by the higher id.
func (r *sensorRegistry) ResolveStatuses(ctx context.Context) (map[string]SensorStatus, error) {
	var rows []resolvedStatus

	err := r.db.WithContext(ctx).Raw(resolveStatusesSQL).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return lo.Associate(rows, func(row resolvedStatus) (string, SensorStatus) {
		return row.UUID, row.Status
	}), nil
}

func (r *sensorRegistry) sensorExists(ctx context.Context, sensorUUID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Sensor{}).Where("uuid = ?", sensorUUID).Count(&count).Error
	return count > 0, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
