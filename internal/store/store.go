package store

import sq "github.com/Masterminds/squirrel"

const (
	userTableName      = "greentrack.users"
	scanTableName      = "greentrack.scans"
	challengeTableName = "greentrack.challenges"
	trainingTableName  = "greentrack.training_modules"
	progressTableName  = "greentrack.training_progress"
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
