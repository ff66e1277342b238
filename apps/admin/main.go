package main

import (
	"log"
	"os"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
	logsvc "github.com/trezcool/darasa/services/logger"
	rostersvc "github.com/trezcool/darasa/services/roster"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

func main() {
	logger := logsvc.NewStdLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile))
	conf := core.NewConfig()

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	redisClient := rostersvc.NewRedisClient(conf)
	years := sqlxrepos.NewAcademicYearRepository(db)

	// start CLI
	cli := commandLine{
		db:          db,
		years:       years,
		scheduleSvc: schedule.NewService(sqlxrepos.NewSlotRepository(db), years, conf),
		rosters:     rostersvc.NewRedisProvider(redisClient),
		out:         os.Stdout,
	}
	err = cli.run(os.Args)

	_ = redisClient.Close()
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
