// cmd/engine/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"proactive-notify/internal/common/config"
	"proactive-notify/internal/common/logger"
	"proactive-notify/internal/common/observability"
	"proactive-notify/internal/delivery"
	"proactive-notify/internal/engine/conflict"
	"proactive-notify/internal/engine/lifecycle"
	"proactive-notify/internal/engine/synth"
	"proactive-notify/internal/engine/timewindow"
	"proactive-notify/internal/models"
	"proactive-notify/internal/source"
	"proactive-notify/internal/store"
	"proactive-notify/pkg/registry"
)

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification engine...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("notification-engine")
	defer obs.Shutdown()

	ctx := context.Background()

	loc := time.UTC
	if cfg.App.Timezone != "" {
		loc, err = time.LoadLocation(cfg.App.Timezone)
		if err != nil {
			zapLog.Fatal("invalid app timezone", zap.String("timezone", cfg.App.Timezone), zap.Error(err))
		}
	}

	// --- Calendar sources ---
	reg, err := registry.LoadRegistry(cfg.Sources.RegistryPath)
	if err != nil {
		zapLog.Fatal("source registry load failed", zap.Error(err))
	}
	zapLog.Info("Source registry loaded",
		zap.String("path", cfg.Sources.RegistryPath),
		zap.Int("sources", len(reg.EnabledSources())),
	)

	srcCfg := source.DefaultConfig()
	if cfg.Sources.TimeoutMS > 0 {
		srcCfg.Timeout = time.Duration(cfg.Sources.TimeoutMS) * time.Millisecond
	}
	events := source.NewICSSource(reg.Sources, srcCfg, log)

	// --- Delivery sinks ---
	sinks := []delivery.Sink{delivery.NewLogSink(log)}

	if cfg.Delivery.Email.Enabled {
		email, err := delivery.NewEmailSink(ctx, cfg.Delivery.AWS.Region, cfg.Delivery.Email.FromEmail, cfg.Delivery.Email.ToEmail, log)
		if err != nil {
			zapLog.Fatal("email sink init failed", zap.Error(err))
		}
		sinks = append(sinks, email)
		zapLog.Info("Email delivery enabled", zap.String("to", cfg.Delivery.Email.ToEmail))
	}

	if cfg.Delivery.Push.Enabled {
		push, err := delivery.NewPushSink(ctx, cfg.Delivery.AWS.Region, cfg.Delivery.Push.TopicARN, log)
		if err != nil {
			zapLog.Fatal("push sink init failed", zap.Error(err))
		}
		sinks = append(sinks, push)
		zapLog.Info("Push delivery enabled", zap.String("topic", cfg.Delivery.Push.TopicARN))
	}

	var history *store.History
	if cfg.Redis.Enabled {
		history = store.NewHistory(cfg.Redis, log)
		if err := history.Ping(ctx); err != nil {
			zapLog.Fatal("redis connection failed", zap.Error(err))
		}
		defer history.Close()
		sinks = append(sinks, history)
		zapLog.Info("Redis history enabled", zap.String("address", cfg.Redis.Address))
	}

	sink := delivery.NewFanoutSink(log, sinks...)

	// --- Engine ---
	synthesizer := synth.NewSynthesizer(synth.Config{
		ReminderLeadMinutes:   cfg.Engine.ReminderLeadMinutes,
		TravelWindowMinutes:   cfg.Engine.TravelWindowMinutes,
		BriefingWindowMinutes: cfg.Engine.BriefingWindowMinutes,
		Conflict: conflict.Config{
			BackToBackGapMinutes: cfg.Engine.BackToBackGapMinutes,
			DailyOverloadCount:   cfg.Engine.DailyOverloadCount,
			MaxConflicts:         cfg.Engine.MaxConflicts,
		},
	}, nil)

	manager := lifecycle.NewManager(sink, log)

	refresh := func() {
		start := time.Now()
		now := start.In(loc)

		evs, err := events.EventsBetween(ctx, timewindow.StartOfDay(now), timewindow.EndOfDay(now))
		if err != nil {
			log.Error("event refresh failed", map[string]interface{}{"error": err.Error()})
			return
		}

		prefs := models.DefaultPreferences()
		prefs.BriefingTime = briefingInstant(now, cfg.Engine.BriefingTime)

		batch := synthesizer.Synthesize(evs, models.UserContext{
			Now:         now,
			Location:    loc,
			Preferences: prefs,
		})
		for _, n := range batch {
			manager.Ingest(n)
		}

		obs.RecordBatch(ctx, len(batch))
		obs.RecordBatchDuration(ctx, time.Since(start))
		log.Info("refresh complete", map[string]interface{}{
			"events":     len(evs),
			"candidates": len(batch),
			"active":     len(manager.ListActive()),
		})
	}

	// --- Schedules ---
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %dm", cfg.Engine.RefreshMinutes), refresh); err != nil {
		zapLog.Fatal("refresh schedule failed", zap.Error(err))
	}
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %dm", cfg.Engine.SweepMinutes), func() {
		if removed := manager.SweepExpired(time.Now().In(loc)); removed > 0 {
			log.Info("expiry sweep", map[string]interface{}{"removed": removed})
		}
	}); err != nil {
		zapLog.Fatal("sweep schedule failed", zap.Error(err))
	}
	scheduler.Start()

	// First synthesis runs immediately rather than waiting a full interval.
	go refresh()

	// --- Metrics endpoint ---
	if cfg.Metrics.Enabled {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Metrics server listening", zap.String("listen", cfg.Metrics.Listen))
			if err := http.ListenAndServe(cfg.Metrics.Listen, nil); err != nil {
				zapLog.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping engine...")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	manager.Shutdown()

	zapLog.Info("Notification engine stopped gracefully")
}

// briefingInstant resolves the configured "HH:MM" briefing time against a
// reference day. A malformed or empty value returns the zero time, which
// suppresses the briefing.
func briefingInstant(day time.Time, hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())
}
