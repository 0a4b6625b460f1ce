package logsvc

import (
	"fmt"
	"log"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/policy"
)

// RollbarLogger prints every entry and reports Info and above to Rollbar.
// Debug stays local: policy denials are logged at that level on most requests.
type RollbarLogger struct {
	std       *log.Logger
	component string // api, db, admin...
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config, component string) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std, component: component}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// item is what one log call reports.
type item struct {
	err    error // first error arg; the message then goes to the extras
	extras map[string]interface{}
}

// newItem sorts the args of a log call: errors, maps merged into the extras, the acting principal
// (as principal_id; anonymous actors are skipped), and anything else printed under "args".
func (l *RollbarLogger) newItem(msg string, args []interface{}) item {
	it := item{extras: map[string]interface{}{"component": l.component}}
	var other []string
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			if it.err == nil {
				it.err = a
			} else {
				other = append(other, a.Error())
			}
		case map[string]interface{}:
			for k, v := range a {
				it.extras[k] = v
			}
		case policy.Actor:
			if _, set := it.extras["principal_id"]; !set && !a.IsAnonymous() {
				it.extras["principal_id"] = a.ID
			}
		default:
			other = append(other, fmt.Sprintf("%+v", a))
		}
	}
	if it.err != nil {
		it.extras["message"] = msg
	}
	if len(other) > 0 {
		it.extras["args"] = other
	}
	return it
}

func (l *RollbarLogger) log(level, msg string, args []interface{}) {
	_ = l.std.Output(3, strings.ToUpper(level)+": "+msg)
	for _, arg := range args {
		_ = l.std.Output(3, fmt.Sprintf("%+v", arg))
	}
	if level == rollbar.DEBUG {
		return
	}

	it := l.newItem(msg, args)
	if it.err != nil {
		rollbar.Log(level, it.err, it.extras)
	} else {
		rollbar.Log(level, msg, it.extras)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(rollbar.DEBUG, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(rollbar.INFO, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(rollbar.WARN, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(rollbar.ERR, msg, args) }

// Fatal reports msg, waits for Rollbar to flush, then exits.
func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(rollbar.CRIT, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
