package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"meal-planner/internal/app"
	"meal-planner/internal/auth"
	"meal-planner/internal/config"
	"meal-planner/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The token command only needs the secret.
	if os.Args[1] == "token" {
		tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
		ttl := tokenCmd.Duration("ttl", 24*time.Hour, "Token lifetime")
		subject := tokenCmd.String("subject", "cli", "Token subject")
		tokenCmd.Parse(os.Args[2:])

		token, err := auth.New(cfg.CronSecret).Issue(*subject, *ttl)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	zl := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", Development: true})
	defer zl.Sync()

	ctx := context.Background()
	application, closer, err := app.Bootstrap(ctx, cfg, nil, zl)
	if err != nil {
		zl.Fatal("failed to initialize application", zap.Error(err))
	}
	defer closer.Close()

	switch os.Args[1] {
	case "generate":
		generateCmd := flag.NewFlagSet("generate", flag.ExitOnError)
		week := generateCmd.String("week", "", "Monday of the week to plan (YYYY-MM-DD), next Monday by default")
		generateCmd.Parse(os.Args[2:])

		plan, err := application.GenerateWeek(ctx, *week)
		if err != nil {
			zl.Fatal("generation failed", zap.Error(err))
		}
		printJSON(plan)
	case "remind":
		res, err := application.SendReminder(ctx)
		if err != nil {
			zl.Fatal("reminder failed", zap.Error(err))
		}
		fmt.Println(res.Message)
	case "seed":
		res, err := application.Seed(ctx)
		if err != nil {
			zl.Fatal("seed failed", zap.Error(err))
		}
		fmt.Printf("%s (%d recipes)\n", res.Message, res.RecipesCount)
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := application.CleanupMetrics(ctx, *days)
		if err != nil {
			zl.Fatal("cleanup failed", zap.Error(err))
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	case "usage":
		usageCmd := flag.NewFlagSet("usage", flag.ExitOnError)
		days := usageCmd.Int("days", 7, "Number of days to report")
		usageCmd.Parse(os.Args[2:])

		usage, err := application.Usage(ctx, *days)
		if err != nil {
			zl.Fatal("usage report failed", zap.Error(err))
		}
		for _, u := range usage {
			fmt.Printf("%s  prompt=%d completion=%d calls=%d failures=%d\n",
				u.Date, u.TotalPrompt, u.TotalCompletion, u.TotalExecution, u.Failures)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Printf("Failed to print result: %v", err)
	}
}

func printUsage() {
	fmt.Println("Usage: meal-planner-cli <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate           Plan next week and send notifications")
	fmt.Println("  remind             Send the approval reminder")
	fmt.Println("  seed               Fill an empty recipe library with the defaults")
	fmt.Println("  token              Issue a bearer token for the cron endpoints")
	fmt.Println("  metrics-cleanup    Remove old metric records")
	fmt.Println("  usage              Print daily AI token usage")
}
