package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/calendar"
	"github.com/trezcool/darasa/core/roster"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/vision"
	logsvc "github.com/trezcool/darasa/services/logger"
	rostersvc "github.com/trezcool/darasa/services/roster"
	visionsvc "github.com/trezcool/darasa/services/vision"
	"github.com/trezcool/darasa/storage/database"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	ScheduleSvc   schedule.ServiceInterface
	CalendarSvc   *calendar.Service
	AttendanceSvc attendance.ServiceInterface
	Matcher       *vision.Matcher
	Validate      *validator.Validate
	Translator    ut.Translator
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newCalendarService(slots schedule.ServiceInterface, items calendar.ItemRepository) *calendar.Service {
	return calendar.NewService(slots, items)
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		ScheduleSvc:   p.ScheduleSvc,
		CalendarSvc:   p.CalendarSvc,
		AttendanceSvc: p.AttendanceSvc,
		Matcher:       p.Matcher,
		Validate:      p.Validate,
		Translator:    p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(func(db *sqlx.DB) core.DBExecutor { return db }))

	// repositories
	must(c.Provide(sqlxrepos.NewSlotRepository, dig.As(new(schedule.Repository))))
	must(c.Provide(sqlxrepos.NewAcademicYearRepository, dig.As(new(schedule.AcademicYearRepository))))
	must(c.Provide(sqlxrepos.NewItemRepository, dig.As(new(calendar.ItemRepository))))
	must(c.Provide(sqlxrepos.NewAttendanceRepository, dig.As(new(attendance.Repository))))
	must(c.Provide(rostersvc.NewRedisClient))
	must(c.Provide(func(client *redis.Client) roster.Provider { return rostersvc.NewRedisProvider(client) }))

	// services
	must(c.Provide(visionsvc.NewGeminiProvider, dig.As(new(vision.Provider))))
	must(c.Provide(vision.NewMatcher))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(schedule.NewService, dig.As(new(schedule.ServiceInterface))))
	must(c.Provide(newCalendarService))
	must(c.Provide(attendance.NewService, dig.As(new(attendance.ServiceInterface))))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
