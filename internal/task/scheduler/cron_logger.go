package scheduler

import (
	"fmt"

	logx "karyabbot/pkg/logx"
)

// cronLogger routes robfig/cron's internal logging into logx. Cron's info
// chatter (wake, run, schedule) goes to debug.
type cronLogger struct {
	log logx.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.log.Warn("previous run still in progress; trigger skipped", kvFields(keysAndValues)...)
		return
	}
	l.log.Debug("cron "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := append([]logx.Field{logx.Err(err)}, kvFields(keysAndValues)...)
	l.log.Error("cron "+msg, fields...)
}

func kvFields(kv []interface{}) []logx.Field {
	if len(kv) == 0 {
		return nil
	}
	out := make([]logx.Field, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			out = append(out, logx.Any(key, nil))
			break
		}
		if key == "stack" {
			out = append(out, logx.Stack(fmt.Sprint(kv[i+1])))
			continue
		}
		out = append(out, logx.Any(key, kv[i+1]))
	}
	return out
}
