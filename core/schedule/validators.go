package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	// custom validation tags & texts
	weekdayTag  = "weekday"
	weekdayText = "{0} must be one of MON, TUE, WED, THU, FRI, SAT, SUN"

	endAfterStartTag  = "endafterstart"
	endAfterStartText = "end_time must be after start_time"
)

// InitValidators registers the validators of this package.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(weekdayTag, weekdayValidation)
	core.RegisterCustomTranslation(validate, translator, weekdayTag, weekdayText)

	validate.RegisterStructValidation(newSlotStructLevelValidation, NewSlot{})
	validate.RegisterStructValidation(updateSlotStructLevelValidation, UpdateSlot{})
	core.RegisterCustomTranslation(validate, translator, endAfterStartTag, endAfterStartText)
}

func weekdayValidation(fl validator.FieldLevel) bool {
	return Day(fl.Field().String()).Valid()
}

func newSlotStructLevelValidation(sl validator.StructLevel) {
	ns := sl.Current().Interface().(NewSlot)
	reportEndBeforeStart(sl, ns.StartTime, ns.EndTime)
}

func updateSlotStructLevelValidation(sl validator.StructLevel) {
	us := sl.Current().Interface().(UpdateSlot)
	reportEndBeforeStart(sl, us.StartTime, us.EndTime)
}

// reportEndBeforeStart requires end > start once both are well-formed; malformed times are reported by `hhmm`.
func reportEndBeforeStart(sl validator.StructLevel, start, end string) {
	if !core.IsTimeOfDay(start) || !core.IsTimeOfDay(end) {
		return
	}
	if end <= start {
		sl.ReportError(end, "end_time", "EndTime", endAfterStartTag, "")
	}
}
