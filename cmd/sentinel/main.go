// Sentinel — Twitter(X) 推文监控与 AI 解读服务
//
// Usage:
//
//	sentinel serve      # 启动 Web 控制台与监控服务
//	sentinel run        # 执行一次扫描后退出
//	sentinel users      # 管理控制台用户
//	sentinel cleanup    # 清理历史数据中的重复推文
//	sentinel version    # 显示版本
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/RobinCoderZhao/tweet-sentinel/internal/api"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/enrich"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/monitor"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/settings"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/store"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/twitter"
	"github.com/RobinCoderZhao/tweet-sentinel/internal/user"
	"github.com/RobinCoderZhao/tweet-sentinel/pkg/config"
	"github.com/RobinCoderZhao/tweet-sentinel/pkg/llm"
	"github.com/RobinCoderZhao/tweet-sentinel/pkg/notify"
	"github.com/RobinCoderZhao/tweet-sentinel/pkg/storage"
)

var version = "dev"

func main() {
	config.LoadDotenv()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Twitter(X) 推文监控与 AI 解读服务",
		Long:  "Sentinel 持续监控指定 Twitter 账号的新推文，使用 LLM 翻译和解读内容，并通过钉钉机器人推送。",
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "配置文件路径")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(runCmd(&configPath))
	rootCmd.AddCommand(usersCmd(&configPath))
	rootCmd.AddCommand(cleanupCmd(&configPath))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 Web 控制台与监控服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "执行一次扫描后退出",
		Long:  "按配置的回溯窗口扫描一轮所有账号，处理并保存新推文，然后退出。",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			m, cleanup, err := buildMonitor(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return m.RunOnce(ctx)
		},
	}
}

func cleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "清理历史数据中的重复推文",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := settings.Load(*configPath)
			if err != nil {
				return err
			}
			records, err := store.New(cfg.DataDir)
			if err != nil {
				return err
			}
			removed, err := records.Deduplicate()
			if err != nil {
				return err
			}
			fmt.Printf("✅ 清理完成，移除 %d 条重复推文\n", removed)
			return nil
		},
	}
}

func usersCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "管理控制台用户",
	}

	var role string
	addCmd := &cobra.Command{
		Use:   "add <username> <password>",
		Short: "添加用户",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, cleanup, err := openUserStore(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			hash, err := bcrypt.GenerateFromPassword([]byte(args[1]), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			id, err := users.Create(cmd.Context(), args[0], string(hash), role)
			if err != nil {
				return err
			}
			fmt.Printf("✅ 用户已创建: %s (id=%d)\n", args[0], id)
			return nil
		},
	}
	addCmd.Flags().StringVar(&role, "role", "viewer", "用户角色 (admin/viewer)")

	rmCmd := &cobra.Command{
		Use:   "rm <username>",
		Short: "删除用户",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, cleanup, err := openUserStore(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			removed, err := users.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Printf("⚠️  用户不存在: %s\n", args[0])
				return nil
			}
			fmt.Printf("✅ 用户已删除: %s\n", args[0])
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "列出所有用户",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, cleanup, err := openUserStore(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			all, err := users.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Println("(无用户)")
				return nil
			}
			for _, u := range all {
				fmt.Printf("%-4d %-20s %-8s %s\n", u.ID, u.Username, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	cmd.AddCommand(addCmd, rmCmd, listCmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sentinel %s\n", version)
		},
	}
}

func runServe(configPath string) error {
	cfg, err := settings.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required, set JWT_SECRET or add it to %s", configPath)
	}

	db, err := storage.Open(storage.Config{DSN: cfg.UsersDB})
	if err != nil {
		return fmt.Errorf("open user database: %w", err)
	}
	defer db.Close()

	users, err := user.NewStore(context.Background(), db)
	if err != nil {
		return fmt.Errorf("init user store: %w", err)
	}
	records, err := store.New(cfg.DataDir)
	if err != nil {
		return err
	}

	factory := func(s settings.Settings) (*monitor.Monitor, error) {
		m, _, err := buildMonitorWithStore(s, records)
		return m, err
	}
	server := api.NewServer(users, records, configPath, factory, cfg.JWTSecret)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsMiddleware(server.Routes()),
	}

	go func() {
		slog.Info("console listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func openUserStore(configPath string) (*user.Store, func(), error) {
	cfg, err := settings.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(storage.Config{DSN: cfg.UsersDB})
	if err != nil {
		return nil, nil, fmt.Errorf("open user database: %w", err)
	}
	users, err := user.NewStore(context.Background(), db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init user store: %w", err)
	}
	return users, func() { db.Close() }, nil
}

// corsMiddleware simple middleware to allow Dev Next.js local development
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "http://localhost:3000") // Next.js default port
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// buildMonitor assembles the full pipeline from settings. The returned
// cleanup closes the LLM client.
func buildMonitor(cfg settings.Settings) (*monitor.Monitor, func(), error) {
	records, err := store.New(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return buildMonitorWithStore(cfg, records)
}

func buildMonitorWithStore(cfg settings.Settings, records *store.Store) (*monitor.Monitor, func(), error) {
	client, err := llm.NewClient(cfg.LLMConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("create LLM client: %w", err)
	}

	var publisher monitor.Publisher
	notifyEnabled := cfg.DingTalk.Enabled || cfg.Webhook.Enabled
	if notifyEnabled {
		disp := notify.NewDispatcher()
		if cfg.DingTalk.Enabled {
			disp.Register(notify.NewDingTalkNotifier(notify.DingTalkConfig{
				WebhookURL: cfg.DingTalk.WebhookURL,
				Secret:     cfg.DingTalk.Secret,
			}))
		}
		if cfg.Webhook.Enabled {
			disp.Register(notify.NewWebhookNotifier(notify.WebhookConfig{
				URL:     cfg.Webhook.URL,
				Headers: cfg.Webhook.Headers,
			}))
		}
		publisher = monitor.NewNotifyPublisher(disp)
	}

	m := monitor.New(monitor.Config{
		Accounts:       cfg.TargetAccounts,
		CheckInterval:  time.Duration(cfg.CheckInterval) * time.Second,
		InitialBacklog: time.Duration(cfg.InitialHours) * time.Hour,
		ExcludeReplies: cfg.ExcludeReplies,
		NotifyEnabled:  notifyEnabled,
	},
		twitter.NewClient(cfg.TwitterAPIKey),
		enrich.New(client),
		records,
		publisher,
	)
	return m, func() { client.Close() }, nil
}
