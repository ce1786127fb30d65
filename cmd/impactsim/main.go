// Command impactsim runs the settlement impact simulation: disease
// outbreaks, war scenarios, and economic prosperity stepped one day at
// a time over a seeded roster of settlements.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/impactsim/internal/config"
	"github.com/talgya/impactsim/internal/disease"
	"github.com/talgya/impactsim/internal/economy"
	"github.com/talgya/impactsim/internal/environment"
	"github.com/talgya/impactsim/internal/notify"
	"github.com/talgya/impactsim/internal/persistence"
	"github.com/talgya/impactsim/internal/quest"
	"github.com/talgya/impactsim/internal/sim"
	"github.com/talgya/impactsim/internal/telemetry"
	"github.com/talgya/impactsim/internal/war"
)

var settlementNames = []string{
	"Aldford", "Briarwick", "Caldmere", "Duskholm", "Eastvale",
	"Fenwater", "Grimsby", "Hollowell", "Ironcross", "Juniper Gate",
}

var projectKinds = []war.ProjectKind{
	war.ProjectHousing,
	war.ProjectDefenses,
	war.ProjectInfrastructure,
	war.ProjectMarketplace,
}

// questLog satisfies quest.Sink by logging offers and counting them.
type questLog struct {
	metrics *telemetry.Metrics
}

func (q questLog) Offer(op quest.Opportunity) {
	q.metrics.RecordQuestOffered(op.Type)
	slog.Info("quest offered",
		"quest", op.Title,
		"type", op.Type,
		"priority", op.Priority,
		"entity", op.EntityID,
	)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	slog.Info("impact simulation starting", "seed", seed, "days", cfg.Days)

	// ── Database ──────────────────────────────────────────────────────
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Collaborators ─────────────────────────────────────────────────
	metrics := telemetry.NewMetrics(telemetry.Config{
		Enabled:   cfg.MetricsEnabled,
		Namespace: cfg.MetricsNS,
	})
	hub := notify.NewHub()
	quests := questLog{metrics: metrics}

	// ── Engines ───────────────────────────────────────────────────────
	diseases := disease.NewEngine(
		disease.WithRand(sim.NewRand(seed)),
		disease.WithQuestSink(quests),
		disease.WithNotifier(hub),
	)
	wars := war.NewEngine(
		war.WithRand(sim.NewRand(seed+1)),
		war.WithQuestSink(quests),
		war.WithNotifier(hub),
	)
	economies := economy.NewEngine(
		economy.WithRand(sim.NewRand(seed+2)),
		economy.WithNotifier(hub),
	)

	if err := db.RestoreAll(diseases, wars, economies); err != nil {
		slog.Error("failed to restore state", "error", err)
		os.Exit(1)
	}

	// ── Settlement roster ─────────────────────────────────────────────
	count := cfg.Settlements
	if count > len(settlementNames) {
		count = len(settlementNames)
	}
	settlements := settlementNames[:count]

	rng := sim.NewRand(seed + 3)
	populations := make(map[string]int, len(settlements))
	for _, id := range settlements {
		populations[id] = 500 + rng.Intn(4500)
	}

	startDay := 0
	if dayStr, err := db.GetMeta("last_day"); err == nil {
		if d, err := strconv.Atoi(dayStr); err == nil {
			startDay = d
			slog.Info("resuming simulation", "day", startDay)
		}
	}

	// A fresh world gets some initial structure to react to.
	if startDay == 0 && len(settlements) >= 2 {
		if _, err := economies.CreateTradeRoute(
			settlements[0], settlements[1],
			[]string{"food", "timber"}, 120, "safe",
		); err != nil {
			slog.Error("seed trade route failed", "error", err)
		}
		if len(settlements) >= 4 {
			if _, err := economies.CreateTradeRoute(
				settlements[2], settlements[3],
				[]string{"iron", "tools"}, 400, "dangerous",
			); err != nil {
				slog.Error("seed trade route failed", "error", err)
			}
		}
	}

	env := environment.NewGenerator(seed)

	// ── HTTP: websocket feed + metrics ────────────────────────────────
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	if h := metrics.Handler(); h != nil {
		mux.Handle("/metrics", h)
	}
	go func() {
		slog.Info("http listening", "addr", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
			slog.Error("http server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// ── Daily loop ────────────────────────────────────────────────────
	fmt.Printf("Simulating %d settlements from day %d. (Ctrl+C to stop)\n",
		len(settlements), startDay)

	day := startDay
loop:
	for day < startDay+cfg.Days {
		select {
		case sig := <-stop:
			slog.Info("received signal, shutting down", "signal", sig)
			break loop
		default:
		}
		day++

		var dayLog []persistence.LogEntry

		for _, id := range settlements {
			factors := env.FactorsFor(id, day)

			if snap, err := diseases.MaybeIntroduceRandom(id, populations[id], factors); err != nil {
				slog.Error("random outbreak roll failed", "settlement", id, "error", err)
			} else if snap != nil && snap.DaysActive == 0 {
				// A roll can also merge into an outbreak already underway;
				// only genuinely fresh ones count as started.
				metrics.RecordOutbreakStarted(string(snap.DiseaseType))
				dayLog = append(dayLog, persistence.LogEntry{
					Day: day, EntityID: id, Category: "disease",
					Description: fmt.Sprintf("%s breaks out", snap.DiseaseName),
				})
			}

			dr, err := diseases.StepDay(id, populations[id], factors)
			if err != nil {
				slog.Error("disease step failed", "settlement", id, "error", err)
				continue
			}
			metrics.RecordDiseaseDay(dr.NewInfections, dr.NewDeaths)
			populations[id] = applyChange(populations[id], -dr.NewDeaths)
			for _, ob := range dr.Outbreaks {
				if ob.Ended {
					metrics.RecordOutbreakEnded(string(ob.DiseaseType))
				}
			}

			wi, err := wars.ProcessDailyEffects(id, populations[id])
			if err != nil {
				slog.Error("war step failed", "settlement", id, "error", err)
				continue
			}
			metrics.RecordWarDay(-wi.PopulationChange, wi.RefugeesGenerated)
			populations[id] = applyChange(populations[id], wi.PopulationChange-wi.RefugeesGenerated)
			for _, ev := range wi.Events {
				dayLog = append(dayLog, persistence.LogEntry{
					Day: day, EntityID: id, Category: "war", Description: ev,
				})
			}

			er, err := economies.ProgressDay(id)
			if err != nil {
				slog.Error("economy step failed", "settlement", id, "error", err)
				continue
			}
			metrics.RecordEconomicDay(id, er.ProsperityLevel, len(er.ExpiredEvents))
			for _, evID := range er.ExpiredEvents {
				dayLog = append(dayLog, persistence.LogEntry{
					Day: day, EntityID: id, Category: "economy",
					Description: fmt.Sprintf("economic event %s runs its course", evID),
				})
			}
		}

		if sc, err := wars.MaybeStartWar(settlements); err != nil {
			slog.Error("war roll failed", "error", err)
		} else if sc != nil {
			metrics.RecordWarStarted()
			dayLog = append(dayLog, persistence.LogEntry{
				Day: day, EntityID: sc.ID, Category: "war",
				Description: fmt.Sprintf("%s begins over %v", sc.Name, sc.Settlements),
			})
		}

		// Standing wars may turn into sieges.
		for _, sc := range wars.ActiveScenarios() {
			if sc.Siege != nil || rng.Float64() >= 0.02 {
				continue
			}
			target := sc.Settlements[rng.Intn(len(sc.Settlements))]
			attacker := 500 + rng.Float64()*4500
			defender := float64(populations[target]) * 0.3
			if err := wars.InitiateSiege(sc.ID, target, attacker, defender); err != nil {
				slog.Error("siege roll failed", "scenario", sc.ID, "error", err)
			}
		}

		for _, sc := range wars.ExpireDueScenarios() {
			metrics.RecordWarEnded(sc.Outcome)
			dayLog = append(dayLog, persistence.LogEntry{
				Day: day, EntityID: sc.ID, Category: "war",
				Description: fmt.Sprintf("%s ends: %s", sc.Name, sc.Outcome),
			})
			for _, member := range sc.Settlements {
				if sc.Outcome == "attacker_victory" {
					if _, err := wars.GenerateRefugees(member, 20+rng.Intn(180)); err != nil {
						slog.Error("refugee generation failed", "settlement", member, "error", err)
					}
				}
				kind := projectKinds[rng.Intn(len(projectKinds))]
				funding := 300 + rng.Float64()*15000
				if _, err := wars.CreateReconstructionProject(member, kind, funding); err != nil {
					slog.Error("reconstruction project failed", "settlement", member, "error", err)
				}
			}
		}

		metrics.RecordDaySimulated()

		if err := db.AppendEvents(dayLog); err != nil {
			slog.Error("event log append failed", "error", err)
		}

		if day%30 == 0 {
			ov := economies.Summary()
			metrics.SetTradeRoutes(ov.ActiveRoutes)
			slog.Info("month complete",
				"day", day,
				"avg_prosperity", fmt.Sprintf("%.3f", ov.AverageProsperity),
				"active_wars", len(wars.ActiveScenarios()),
			)
		}

		if err := db.SaveAll(diseases, wars, economies, day); err != nil {
			slog.Error("daily save failed", "error", err)
		}
	}

	slog.Info("final save...")
	if err := db.SaveAll(diseases, wars, economies, day); err != nil {
		slog.Error("final save failed", "error", err)
	}
	if recent, err := db.RecentEvents(5); err == nil {
		for _, entry := range recent {
			slog.Info("recent event",
				"day", entry.Day,
				"entity", entry.EntityID,
				"category", entry.Category,
				"event", entry.Description,
			)
		}
	}
	fmt.Println("Simulation stopped. State saved.")
}

func applyChange(population, change int) int {
	population += change
	if population < 0 {
		return 0
	}
	return population
}
