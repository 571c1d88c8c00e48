package gradedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// BunStore keeps the schedule record in Postgres.
type BunStore struct {
	DB bun.IDB
}

var _ Store = (*BunStore)(nil)

// NewBunStore returns a BunStore on db.
func NewBunStore(db bun.IDB) *BunStore {
	return &BunStore{DB: db}
}

func (s *BunStore) Save(ctx context.Context, rec ScheduleRecord) error {
	row := &GradeSchedule{
		ID:        scheduleRowID,
		Month:     rec.Month,
		Day:       rec.Day,
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.DB.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("month = EXCLUDED.month").
		Set("day = EXCLUDED.day").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save schedule record: %w", err)
	}
	return nil
}

func (s *BunStore) Load(ctx context.Context) (ScheduleRecord, bool, error) {
	var row GradeSchedule
	err := s.DB.NewSelect().Model(&row).Where("id = ?", scheduleRowID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ScheduleRecord{}, false, nil
		}
		return ScheduleRecord{}, false, fmt.Errorf("failed to load schedule record: %w", err)
	}
	rec := ScheduleRecord{Month: row.Month, Day: row.Day}
	if !rec.Valid() {
		return ScheduleRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *BunStore) Clear(ctx context.Context) error {
	_, err := s.DB.NewDelete().Model((*GradeSchedule)(nil)).Where("id = ?", scheduleRowID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear schedule record: %w", err)
	}
	return nil
}
