// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"importmore/config"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// identifies single invocation in logs and debug report
	RunID string

	// used by import subcommand
	DryRun bool

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
	}
}

// newLocalEnv creates a new LocalEnv instance with default values. Logger
// stays nil until configuration is loaded.
func newLocalEnv() *LocalEnv {
	env := &LocalEnv{start: time.Now()}
	if id, err := uuid.NewV7(); err == nil {
		env.RunID = id.String()
	} else {
		env.RunID = uuid.NewString()
	}
	return env
}
