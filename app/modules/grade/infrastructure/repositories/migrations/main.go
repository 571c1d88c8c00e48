package migrations

import (
	"context"
	"fmt"

	gradedb "github.com/Black-And-White-Club/grade-bot/app/modules/grade/infrastructure/repositories"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// CreateGradeSchedulesTable creates the grade_schedules table from the bun model.
func CreateGradeSchedulesTable(ctx context.Context, db *bun.DB) error {
	fmt.Println("Creating grade_schedules table...")
	_, err := db.NewCreateTable().Model((*gradedb.GradeSchedule)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create grade_schedules table: %w", err)
	}
	fmt.Println("grade_schedules table created successfully!")
	return nil
}

// DropGradeSchedulesTable drops the grade_schedules table.
func DropGradeSchedulesTable(ctx context.Context, db *bun.DB) error {
	fmt.Println("Dropping grade_schedules table...")
	_, err := db.NewDropTable().Model((*gradedb.GradeSchedule)(nil)).IfExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop grade_schedules table: %w", err)
	}
	fmt.Println("grade_schedules table dropped successfully!")
	return nil
}

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
