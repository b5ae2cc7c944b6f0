package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trading-dashboard-go/internal/client"
	"trading-dashboard-go/internal/config"
	"trading-dashboard-go/internal/console"
	"trading-dashboard-go/internal/gateway"
	"trading-dashboard-go/internal/logger"
	"trading-dashboard-go/internal/models"
	"trading-dashboard-go/internal/persistence"
	"trading-dashboard-go/internal/render"
	"trading-dashboard-go/internal/reporter"
	"trading-dashboard-go/internal/scheduler"
	"trading-dashboard-go/internal/statemanager"
	"trading-dashboard-go/internal/viewport"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- 命令行参数定义 ---
	configPath := flag.String("config", "config.json", "path to the config file")
	mode := flag.String("mode", "watch", "running mode: watch or report")
	flag.Parse()

	// --- 初始化日志 (提前) ---
	logger.InitLogger(models.LogConfig{Level: "info", Output: "console"})

	// --- 加载 .env 文件 ---
	if err := godotenv.Load(); err != nil {
		logger.S().Info("未找到 .env 文件，将从系统环境变量中读取。")
	} else {
		logger.S().Info("成功从 .env 文件加载配置。")
	}

	// --- 加载配置 ---
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.S().Fatalf("无法加载配置文件: %v", err)
	}

	// --- 使用文件中的配置重新初始化日志 ---
	logger.InitLogger(cfg.LogConfig)
	defer logger.Sync()

	repo, err := persistence.NewBadgerRepository(cfg.DBPath)
	if err != nil {
		logger.S().Fatalf("无法打开状态数据库: %v", err)
	}
	defer repo.Close()

	saved, err := repo.LoadState()
	if err != nil {
		logger.S().Warnf("加载保存的状态失败, 将从空状态开始: %v", err)
		saved = nil
	}

	switch *mode {
	case "watch":
		if err := runWatchMode(cfg, repo, saved); err != nil {
			logger.S().Errorf("仪表盘异常退出: %v", err)
		}
	case "report":
		reporter.Print(os.Stdout, saved)
	default:
		logger.S().Errorf("未知的运行模式: %s。请选择 'watch' 或 'report'。", *mode)
	}
}

// runWatchMode 启动轮询、渲染和命令输入, 直到收到退出信号或 quit 命令
func runWatchMode(cfg *models.Config, repo persistence.StateRepository, saved *models.DashboardState) error {
	log := logger.L()

	initial := saved
	if initial == nil {
		tf, _ := models.ParseTimeframe(cfg.DefaultTimeframe)
		initial = &models.DashboardState{Timeframe: tf}
	}

	api, err := client.NewClient(cfg.BaseURL, time.Duration(cfg.HTTPTimeoutSec)*time.Second, log)
	if err != nil {
		return err
	}

	// --- 渲染器 ---
	var (
		renderers   render.Multi
		terminal    *render.Terminal
		broadcaster *render.Broadcaster
	)
	if cfg.Terminal {
		terminal = render.NewTerminal(os.Stdout, 0, true)
		renderers = append(renderers, terminal)
	}
	if cfg.ListenAddr != "" {
		broadcaster = render.NewBroadcaster(nil, log)
		renderers = append(renderers, broadcaster)
	}

	sm := statemanager.NewStateManager(initial, repo, renderers, viewport.NewTracker(),
		statemanager.Options{TradeLimit: cfg.TradeDisplayLimit}, log)
	sm.Start()
	defer sm.Stop()

	sched, err := scheduler.New(log, sm.Feeds(api, statemanager.Intervals{
		Status:   time.Duration(cfg.StatusIntervalMs) * time.Millisecond,
		Chart:    time.Duration(cfg.ChartIntervalMs) * time.Millisecond,
		Screener: time.Duration(cfg.ScreenerIntervalMs) * time.Millisecond,
	})...)
	if err != nil {
		return err
	}
	sm.SetRefresher(sched)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sched.Run(ctx) })

	if broadcaster != nil {
		broadcaster.SetControl(sm)
		g.Go(func() error { return broadcaster.Serve(ctx, cfg.ListenAddr) })
		log.Info("websocket view-state stream enabled", zap.String("addr", cfg.ListenAddr))
	}

	if terminal != nil {
		gw := gateway.New(api, console.NewHuhPrompter(terminal, log), sm, sched, log)
		con := console.New(os.Stdin, os.Stdout, gw, sm, sched, log)
		g.Go(func() error {
			err := con.Run(ctx)
			if errors.Is(err, console.ErrQuit) {
				stop()
				return nil
			}
			return err
		})
	}

	log.Info("dashboard started",
		zap.String("backend", cfg.BaseURL),
		zap.String("timeframe", string(sm.Timeframe())))

	err = g.Wait()
	log.Info("dashboard stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
