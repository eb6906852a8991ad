// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"

	"vdomkit/config"
	"vdomkit/css"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// Sanitizer is built from Cfg once configuration is loaded and shared by
	// all subcommands
	Sanitizer *css.Sanitizer

	start         time.Time
	restoreStdLog func()
}

func newLocalEnv() *LocalEnv {
	return &LocalEnv{start: time.Now()}
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

// PrepareSanitizer creates CSS sanitizer according to loaded configuration.
func (e *LocalEnv) PrepareSanitizer() {
	var opts []css.Option
	if e.Cfg != nil {
		opts = append(opts,
			css.WithBlockedAtRules(e.Cfg.Sanitizer.BlockedAtRules...),
			css.WithFragmentProperties(e.Cfg.Sanitizer.FragmentProperties...),
		)
	}
	e.Sanitizer = css.NewSanitizer(e.Log, opts...)
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
