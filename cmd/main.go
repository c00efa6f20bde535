package main

import (
	"github.com/spf13/pflag"

	"github.com/adanyl0v/task-tracker/internal/app"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply the storage schema and exit")
	pflag.Parse()

	app.InitDefaultLogger()
	app.MustReadEnv(*envFile)
	app.MustInitApplicationLogger()

	app.MustOpenStorage()
	defer app.CloseStorage()

	app.MustMigrateStorage()
	if *migrateOnly {
		return
	}

	app.MustListenAndServeHTTP()
}
