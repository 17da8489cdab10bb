package app

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/safrinnetwork/MikReMan/config"
	"github.com/safrinnetwork/MikReMan/internal/notify"
	"github.com/safrinnetwork/MikReMan/internal/orchestrator"
	"github.com/safrinnetwork/MikReMan/internal/routeros"
)

// Application wires the configuration, the device client, the orchestrator,
// and the optional backup sink.
type Application struct {
	store  *config.Store
	client *routeros.Client
	orch   *orchestrator.Orchestrator
	sink   orchestrator.BackupSink
}

func NewApplication(store *config.Store) *Application {
	return &Application{store: store}
}

func (a *Application) Config() *config.AppConfig {
	return a.store.Config()
}

func (a *Application) Orchestrator() *orchestrator.Orchestrator {
	return a.orch
}

func (a *Application) BackupSink() orchestrator.BackupSink {
	return a.sink
}

func (a *Application) Init(ctx context.Context) error {
	cfg := a.store.Config()

	// Initialize zap logger
	var zapConfig zap.Config
	if cfg.Logger.Mode == "prod" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	// Build logger with file rotation if enabled
	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}
	zap.ReplaceGlobals(logger)

	creds, err := a.store.Credentials()
	if err != nil {
		return err
	}
	a.client = routeros.NewClient(creds)
	opts := []orchestrator.Option{orchestrator.WithServiceStatusStore(a.store)}
	if cfg.Device.Serialize {
		opts = append(opts, orchestrator.WithDeviceLock())
	}
	a.orch = orchestrator.New(a.client, opts...)

	if cfg.Telegram.Enabled {
		tg := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err := tg.Verify(ctx); err != nil {
			zap.S().Warnf("telegram sink disabled: %v", err)
		} else {
			a.sink = tg
			zap.S().Info("telegram backup sink enabled")
		}
	}

	if info, err := a.orch.TestConnection(ctx); err != nil {
		zap.S().Warnf("device not reachable at startup: %v", err)
	} else {
		zap.S().Infof("connected to %s, RouterOS %s", info.Board, info.Version)
	}

	return nil
}
