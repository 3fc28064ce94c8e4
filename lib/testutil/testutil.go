package testutil

import (
	"database/sql"
	"fmt"
	"recordwatch/internal/components/telemetry"
	libtelemetry "recordwatch/lib/telemetry"
	"recordwatch/pkg/migrations"
	"testing"
)

type ServiceParams struct {
	Name string
	// if unspecified, it will skip setting up a db
	DbSchema string
	// if unspecified, it will use `:memory:`
	DbPath string
}

type ServiceResult struct {
	DB  *sql.DB
	Tel *telemetry.Recorder
}

func SetupService(t testing.TB, params ServiceParams) (ServiceResult, func()) {
	shutdown := libtelemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	result := ServiceResult{Tel: telemetry.NewRecorder()}

	if params.DbSchema == "" {
		return result, shutdown
	}

	dbpath := ":memory:"
	if params.DbPath != "" {
		dbpath = params.DbPath
	}
	database, err := migrations.OpenAndMigrateDB(params.DbSchema, dbpath)
	if err != nil {
		t.Fatal(err)
	}
	result.DB = database

	return result, func() {
		database.Close()
		shutdown()
	}
}
