package migrations

func init() {
	Migrations.MustRegister(CreateGradeSchedulesTable, DropGradeSchedulesTable)
}
