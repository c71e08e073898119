package schedule

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timegrid"
)

var (
	weekdaysTag  = "weekdays"
	weekdaysText = "at least one day of the week is required (e.g. Mon/Wed)"

	timeRangeTag  = "timerange"
	timeRangeText = `invalid time range, expected "7:00 AM - 8:30 AM"`
)

// RegisterValidators registers the schedule validation tags.
// The timerange tag accepts what the grid will accept under policy.
func RegisterValidators(validate *validator.Validate, translator ut.Translator, policy timegrid.MeridiemPolicy) {
	_ = validate.RegisterValidation(weekdaysTag, weekdaysValidation)
	core.RegisterCustomTranslation(validate, translator, weekdaysTag, weekdaysText)

	_ = validate.RegisterValidation(timeRangeTag, timeRangeValidation(policy))
	core.RegisterCustomTranslation(validate, translator, timeRangeTag, timeRangeText)
}

// weekdaysValidation checks that at least one token maps to a day of the week.
func weekdaysValidation(fl validator.FieldLevel) bool {
	return !timegrid.NormalizeDayTokens(fl.Field().String()).IsEmpty()
}

// timeRangeValidation checks that the range parses and is not empty.
func timeRangeValidation(policy timegrid.MeridiemPolicy) validator.Func {
	return func(fl validator.FieldLevel) bool {
		start, end, ok := timegrid.ParseTimeRange(fl.Field().String(), policy)
		return ok && start < end
	}
}
