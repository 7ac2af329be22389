// Command notify-check sends one chat message through the configured
// sender, or with -retry runs a single pass of the notification retry
// worker against the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/hyeunung/hanslwebapp-sub000/internal/config"
	"github.com/hyeunung/hanslwebapp-sub000/internal/container"
	"github.com/hyeunung/hanslwebapp-sub000/internal/infrastructure/worker"
	"github.com/hyeunung/hanslwebapp-sub000/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the config file")
	retry := flag.Bool("retry", false, "retry failed notifications once and exit")
	text := flag.String("text", "발주 알림 테스트 메시지입니다.", "message text")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: notify-check [-config path] [-text msg] <email|open_id|chat_id>\n")
		fmt.Fprintf(os.Stderr, "       notify-check [-config path] -retry\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if !*retry && flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Println("=== Notification Check ===")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Lark.Enabled() {
		fmt.Println("Lark credentials are not set; messages will only be logged.")
	} else {
		fmt.Printf("App ID: %s\n", mask(cfg.Lark.AppID))
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: "debug", OutputPath: "stderr", Format: "console"})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *retry {
		retryFailed(ctx, cfg, logger)
		return
	}

	recipient := flag.Arg(0)
	sender := container.ProvideMessenger(&cfg.Lark, logger)
	fmt.Printf("\nSending to %s...\n", recipient)
	if err := sender.SendText(ctx, recipient, *text); err != nil {
		log.Fatalf("✗ Send failed: %v", err)
	}
	fmt.Println("✓ Message sent")
}

func retryFailed(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	db, err := container.ProvideDatabase(ctx, &cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.DB.Close()

	repos, err := container.ProvideRepositories(db.DB, logger)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}

	w := worker.NewNotificationWorker(worker.NotificationWorkerConfig{
		BatchSize:   cfg.Worker.BatchSize,
		MaxAttempts: cfg.Worker.MaxAttempts,
		SendTimeout: cfg.Worker.SendTimeout,
	}, repos.Notifications, container.ProvideMessenger(&cfg.Lark, logger), logger)

	fmt.Println("\nRetrying failed notifications...")
	sent, err := w.RetryOnce(ctx)
	if err != nil {
		log.Fatalf("✗ Retry failed: %v", err)
	}
	fmt.Printf("✓ %d notification(s) delivered\n", sent)
}

func mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
