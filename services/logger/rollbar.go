package logsvc

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
)

// RollbarLogger prints to std and reports to Rollbar when enabled.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

// NewTestLogger returns a logger that neither prints nor reports.
func NewTestLogger() *RollbarLogger {
	l := &RollbarLogger{std: log.New(io.Discard, "", 0)}
	l.Enable(false)
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close flushes pending reports.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// entry is one log call split into what Rollbar understands.
type entry struct {
	err    error
	person *user.User
	extras map[string]interface{}
}

// parse sorts args: the first error is reported as such, the first user.User
// becomes the Rollbar person, schedules and events are flattened into extras.
func parse(args []interface{}) entry {
	e := entry{extras: make(map[string]interface{})}
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			if e.err == nil {
				e.err = v
			}
		case user.User:
			if e.person == nil {
				usr := v
				e.person = &usr
			}
		case schedule.Schedule:
			e.extras["schedule_id"] = v.ID
			e.extras["schedule_day"] = v.Day
			e.extras["schedule_time"] = v.Time
		case core.Event:
			e.extras["event"] = v.Name
		case map[string]interface{}:
			for k, val := range v {
				e.extras[k] = val
			}
		case nil:
		default:
			e.extras[fmt.Sprintf("arg%d", len(e.extras))] = v
		}
	}
	return e
}

func (l RollbarLogger) report(level, msg string, e entry) {
	if e.person != nil {
		rollbar.SetPerson(e.person.ID, e.person.Username, e.person.Email)
	} else {
		rollbar.ClearPerson()
	}

	args := []interface{}{msg}
	if e.err != nil {
		args = append(args, e.err)
	}
	if len(e.extras) > 0 {
		args = append(args, e.extras)
	}
	rollbar.Log(level, args...)
}

// format renders "LEVEL: msg key=value ..." with keys sorted.
func format(level, msg string, e entry) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(level))
	b.WriteString(": ")
	b.WriteString(msg)

	keys := make([]string, 0, len(e.extras))
	for k := range e.extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.extras[k])
	}
	if e.person != nil {
		fmt.Fprintf(&b, " user=%s", e.person.ID)
	}
	if e.err != nil {
		fmt.Fprintf(&b, "\n%+v", e.err)
	}
	return b.String()
}

func (l RollbarLogger) log(level, msg string, args []interface{}) {
	e := parse(args)
	l.report(level, msg, e)
	l.std.Println(format(level, msg, e))
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.log(rollbar.DEBUG, msg, args)
	}
}

func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}
