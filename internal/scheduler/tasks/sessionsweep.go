package tasks

import (
	"time"

	"github.com/toplist/toplist/internal/config"
	"github.com/toplist/toplist/internal/scheduler"
	"github.com/toplist/toplist/internal/session"
)

// RegisterSessionSweepTask drops compositions nobody touched for the idle
// timeout. Their drafts are lost, as they would be on a restart.
func RegisterSessionSweepTask(sched *scheduler.Scheduler, store *session.Store, cfg *config.SessionsConfig) error {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = 6 * time.Hour
	}
	cron := cfg.SweepCron
	if cron == "" {
		cron = "*/15 * * * *"
	}

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          "session-sweep",
		Name:        "Session Sweep",
		Description: "Discards abandoned compositions",
		Cron:        cron,
		Func:        store.SweepTask(idle),
	})
}
