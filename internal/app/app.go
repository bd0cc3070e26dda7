package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/betbot/polytrade/internal/trading"
	"github.com/betbot/polytrade/pkg/config"
	"github.com/betbot/polytrade/pkg/logger"
	"github.com/betbot/polytrade/pkg/secretstore"
	"github.com/betbot/polytrade/pkg/shutdown"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// EnvPrefix 密钥库中环境变量条目的前缀
const EnvPrefix = "env/"

// App 命令行和服务共用的运行时组件
type App struct {
	Config   *config.Config
	Adapter  *trading.Adapter
	Store    *secretstore.Store // 未配置时为 nil
	Shutdown *shutdown.Manager
	Log      *logrus.Entry
}

// Open 加载配置、初始化日志、打开密钥库并创建交易适配器
func Open(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputFile: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	log := logger.WithField("component", "app")
	sm := shutdown.NewManager(log)
	sm.OnShutdown("logger", func(context.Context) error { return logger.Close() })

	a := &App{Config: cfg, Shutdown: sm, Log: log}

	opts := []trading.Option{trading.WithLogger(logger.WithField("component", "trading"))}
	if cfg.SecretStore.Path != "" {
		store, err := OpenStore(cfg.SecretStore, false)
		if err != nil {
			_ = sm.Shutdown(context.Background())
			return nil, err
		}
		a.Store = store

		if n, err := FillFromStore(&cfg.Polymarket, store); err != nil {
			log.WithError(err).Warn("读取密钥库中的凭证失败")
		} else if n > 0 {
			log.Infof("从密钥库补全 %d 项凭证", n)
		}
		opts = append(opts, trading.WithCredentialStore(store))
	}

	a.Adapter = trading.New(opts...)
	// 适配器关闭时一并关闭密钥库
	sm.OnShutdown("trading", func(context.Context) error { return a.Adapter.Close() })

	return a, nil
}

// Close 按注册逆序释放资源
func (a *App) Close(ctx context.Context) error {
	return a.Shutdown.Shutdown(ctx)
}

// OpenStore 打开 badger 密钥库；Key 为空时不加密
func OpenStore(cfg config.SecretStoreConfig, readOnly bool) (*secretstore.Store, error) {
	key, err := secretstore.ParseKey(cfg.Key)
	if err != nil {
		return nil, err
	}
	return secretstore.Open(secretstore.OpenOptions{
		Path:          cfg.Path,
		EncryptionKey: key,
		ReadOnly:      readOnly,
	})
}

// FillFromStore 用密钥库 env/<KEY> 条目补全未设置的凭证字段，返回补全的数量
func FillFromStore(s *config.Settings, store *secretstore.Store) (int, error) {
	fields := []struct {
		key string
		dst *string
	}{
		{"POLYMARKET_PRIVATE_KEY", &s.PrivateKey},
		{"POLYMARKET_FUNDER", &s.Funder},
		{"POLYMARKET_API_KEY", &s.APIKey},
		{"POLYMARKET_API_SECRET", &s.APISecret},
		{"POLYMARKET_API_PASSPHRASE", &s.APIPassphrase},
	}

	filled := 0
	for _, f := range fields {
		if strings.TrimSpace(*f.dst) != "" {
			continue
		}
		v, ok, err := store.GetString(EnvPrefix + f.key)
		if err != nil {
			return filled, err
		}
		if ok && strings.TrimSpace(v) != "" {
			*f.dst = strings.TrimSpace(v)
			filled++
		}
	}
	return filled, nil
}

// ImportEnv 把 .env 文件中的条目写入密钥库，返回写入数量
func ImportEnv(store *secretstore.Store, path, prefix string) (int, error) {
	kv, err := godotenv.Read(path)
	if err != nil {
		return 0, fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	written := 0
	for k, v := range kv {
		if err := store.SetString(prefix+k, v); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
