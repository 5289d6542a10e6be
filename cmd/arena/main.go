package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/massarena/server/internal/config"
	"github.com/massarena/server/internal/core/event"
	coresys "github.com/massarena/server/internal/core/system"
	"github.com/massarena/server/internal/data"
	"github.com/massarena/server/internal/handler"
	gonet "github.com/massarena/server/internal/net"
	"github.com/massarena/server/internal/net/packet"
	"github.com/massarena/server/internal/persist"
	"github.com/massarena/server/internal/scripting"
	"github.com/massarena/server/internal/system"
	"github.com/massarena/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              MassArena  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mServer:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("ARENA_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Audit store
	printSection("Database")
	audit, closeDB, err := openAudit(cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()
	defer audit.Close()
	fmt.Println()

	// 4. Rules and data
	printSection("World")
	styles, err := loadVirusStyles(cfg.Game.Virus.StyleTable)
	if err != nil {
		return fmt.Errorf("virus styles: %w", err)
	}
	printStat("Virus styles", len(styles))

	settings := settingsFrom(cfg.Game)
	massLoss := world.DefaultMassLoss(settings.MassLossRate, settings.DefaultPlayerMass, settings.MinMassLoss)
	if cfg.Scripting.Dir != "" {
		engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		massLoss = engine.MassLoss(scripting.MassLossParams{
			Rate:        settings.MassLossRate,
			DefaultMass: settings.DefaultPlayerMass,
			MinMassLoss: settings.MinMassLoss,
		}, massLoss)
		printOK("Lua rules loaded from " + cfg.Scripting.Dir)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	w := world.New(settings, rng, styles)
	initial := w.BalanceMass()
	printStat("Food", initial.FoodAdded)
	printStat("Viruses", initial.VirusesAdded)
	fmt.Println()

	// 5. Shared state
	roster := world.NewRoster()
	spectators := &world.Spectators{}
	leaderboard := &world.Leaderboard{}
	bus := event.NewBus()
	store := gonet.NewSessionStore(log)

	// 6. Handlers
	registry := packet.NewRegistry(log)
	handler.RegisterAll(registry, &handler.Deps{
		World:      w,
		Roster:     roster,
		Spectators: spectators,
		Sender:     store,
		Bus:        bus,
		Audit:      audit,
		AdminHash:  cfg.Admin.PasswordHash,
		LogChat:    cfg.Logging.LogChat,
		Now:        time.Now,
		Log:        log,
	})

	// 7. Network
	sessCfg := gonet.SessionConfig{
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
		WriteTimeout: cfg.Network.WriteTimeout,
		ReadTimeout:  cfg.Network.ReadTimeout,
	}
	if cfg.RateLimit.Enabled {
		sessCfg.PacketsPerSecond = cfg.RateLimit.PacketsPerSecond
	}
	netServer := gonet.NewServer(sessCfg, log)

	// 8. Systems
	var stats system.Stats
	system.SubscribeLifecycle(bus, &stats, log)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(netServer, registry, store, w, roster, spectators, bus, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(system.NewEventSystem(bus))
	runner.Register(system.NewPhysicsSystem(w, store, bus, cfg.Game.MaxHeartbeatInterval, time.Now, log))
	runner.Register(coresys.Every(cfg.Network.BalanceInterval, system.NewBalanceSystem(w, leaderboard, massLoss, log)))
	runner.Register(coresys.Every(cfg.Network.BroadcastInterval(), system.NewBroadcastSystem(w, spectators, leaderboard, store)))
	runner.Register(system.NewOutputSystem(store))

	// 9. Listeners
	printSection("Server ready")
	var g errgroup.Group
	var tcpLn net.Listener
	if addr := cfg.Network.BindAddress; addr != "" {
		tcpLn, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen tcp: %w", err)
		}
		g.Go(func() error { return netServer.ServeTCP(tcpLn) })
		printReady("TCP on " + tcpLn.Addr().String())
	}
	var httpSrv *http.Server
	if addr := cfg.Network.WSBindAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle(cfg.Network.WSPath, netServer.WSHandler())
		httpSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		wsLn, err := net.Listen("tcp", addr)
		if err != nil {
			if tcpLn != nil {
				tcpLn.Close()
			}
			return fmt.Errorf("listen websocket: %w", err)
		}
		g.Go(func() error {
			if err := httpSrv.Serve(wsLn); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		printReady(fmt.Sprintf("Websocket on %s%s", wsLn.Addr().String(), cfg.Network.WSPath))
	}
	printReady(fmt.Sprintf("Game loop running (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	listenErr := make(chan error, 1)
	go func() { listenErr <- g.Wait() }()

	// 10. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	stop := func() {
		netServer.Shutdown()
		if tcpLn != nil {
			tcpLn.Close()
		}
		if httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpSrv.Shutdown(ctx)
		}
		bye := packet.MustEncode(packet.S_OPCODE_SERVER_MSG, packet.ServerMessage{Text: "Server is shutting down."})
		store.ForEach(func(s *gonet.Session) {
			s.Send(bye)
			store.Disconnect(s.ID)
		})
		runner.TickPhase(coresys.PhaseOutput, 0)
	}

	for {
		select {
		case <-ticker.C:
			if runner.Tick(cfg.Network.TickRate) {
				log.Warn("tick overran its budget",
					zap.Uint64("tick", runner.Ticks()),
					zap.Duration("elapsed", runner.Elapsed()),
					zap.Duration("budget", cfg.Network.TickRate),
				)
			}
		case err := <-listenErr:
			stop()
			if err != nil {
				return fmt.Errorf("listener: %w", err)
			}
			return nil
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			stop()
			log.Info("server stopped",
				zap.Int("joined", stats.Joined),
				zap.Int("spectators", stats.Spectators),
				zap.Int("left", stats.Left),
				zap.Int("died", stats.Died),
				zap.Int("kicked", stats.Kicked),
			)
			return nil
		}
	}
}

// openAudit connects to PostgreSQL when enabled. The returned close func is
// always safe to call.
func openAudit(cfg *config.Config, log *zap.Logger) (persist.Auditor, func(), error) {
	if !cfg.Database.Enabled {
		printOK("Audit disabled")
		return persist.NopAuditor{}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	printOK("PostgreSQL connected")

	version, err := persist.RunMigrations(ctx, db.Pool)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrations: %w", err)
	}
	printOK(fmt.Sprintf("Migrations applied (version %d)", version))

	writer := persist.NewAuditWriter(
		persist.NewChatRepo(db),
		persist.NewLoginRepo(db),
		cfg.Database.QueueSize,
		cfg.Database.WriteTimeout,
		log,
	)
	return writer, db.Close, nil
}

func loadVirusStyles(path string) ([]world.VirusStyle, error) {
	if path == "" {
		return nil, nil
	}
	table, err := data.LoadVirusStyleTable(path)
	if err != nil {
		return nil, err
	}
	out := make([]world.VirusStyle, 0, table.Count())
	for _, e := range table.All() {
		out = append(out, world.VirusStyle{Fill: e.Fill, Stroke: e.Stroke, StrokeWidth: e.StrokeWidth})
	}
	return out, nil
}

func settingsFrom(g config.GameConfig) world.Settings {
	return world.Settings{
		Width:             g.Width,
		Height:            g.Height,
		DefaultPlayerMass: g.DefaultPlayerMass,
		FoodMass:          g.FoodMass,
		FireFood:          g.FireFood,
		LimitSplit:        g.LimitSplit,
		GameMass:          g.GameMass,
		MaxFood:           g.MaxFood,
		MaxVirus:          g.MaxVirus,
		SlowBase:          g.SlowBase,
		MergeTimer:        g.MergeTimer,
		MassLossRate:      g.MassLossRate,
		MinMassLoss:       g.MinMassLoss,
		FoodUniform:       g.FoodUniformDisposition,
		FarthestSpawn:     g.NewPlayerInitialPos == "farthest",
		VirusMassFrom:     g.Virus.MassFrom,
		VirusMassTo:       g.Virus.MassTo,
		VirusUniform:      g.Virus.UniformDisposition,
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
