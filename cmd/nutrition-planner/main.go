package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"nutrition-planner/internal/app"
	"nutrition-planner/internal/config"
	"nutrition-planner/internal/logger"
	"nutrition-planner/internal/shopping"
	"nutrition-planner/internal/tracker"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	ctx := context.Background()
	application, cleanup, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer cleanup()

	if err := run(ctx, application, os.Args[1], os.Args[2:]); err != nil {
		cleanup()
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
	}
}

func run(ctx context.Context, a *app.App, command string, args []string) error {
	switch command {
	case "plan":
		fs := flag.NewFlagSet("plan", flag.ExitOnError)
		start := fs.String("start", "", "Start date of the plan (YYYY-MM-DD)")
		fs.Parse(args)
		if fs.NArg() < 2 {
			return fmt.Errorf("usage: plan [-start YYYY-MM-DD] <user> <request>")
		}
		var startDate time.Time
		if *start != "" {
			d, err := time.Parse(tracker.DateLayout, *start)
			if err != nil {
				return fmt.Errorf("invalid -start: %w", err)
			}
			startDate = d
		}
		plan, err := a.GeneratePlan(ctx, fs.Arg(0), strings.Join(fs.Args()[1:], " "), startDate)
		if err != nil {
			return err
		}
		fmt.Printf("Plan %d created with %d recipes.\n", plan.ID, len(plan.Recipes))
		return nil

	case "revise":
		if len(args) < 2 {
			return fmt.Errorf("usage: revise <user> <feedback>")
		}
		latest, err := a.LatestPlan(ctx, args[0])
		if err != nil {
			return err
		}
		plan, err := a.RevisePlan(ctx, latest.ID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Printf("Plan %d revised.\n", plan.ID)
		return nil

	case "shopping":
		if len(args) != 1 {
			return fmt.Errorf("usage: shopping <user>")
		}
		list, err := a.LatestShoppingList(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Print(shopping.FormatList(list.Entries, list.Checked))
		return nil

	case "export":
		if len(args) != 2 {
			return fmt.Errorf("usage: export <user> <file.xlsx>")
		}
		latest, err := a.LatestPlan(ctx, args[0])
		if err != nil {
			return err
		}
		f, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", args[1], err)
		}
		defer f.Close()
		if err := a.ExportShoppingList(ctx, latest.ID, f); err != nil {
			return err
		}
		fmt.Printf("Shopping list of plan %d written to %s\n", latest.ID, args[1])
		return nil

	case "summary":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: summary <user> [YYYY-MM-DD]")
		}
		date := ""
		if len(args) == 2 {
			date = args[1]
		}
		s, err := a.DailySummary(ctx, args[0], date)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d ml water, %d workouts (%d min), %d kcal planned\n",
			s.Date, s.HydrationMl, s.Workouts, s.WorkoutMinutes, s.PlannedCalories)
		return nil

	case "backup":
		if len(args) != 2 {
			return fmt.Errorf("usage: backup push|pull <user>")
		}
		switch args[0] {
		case "push":
			result, err := a.PushBackup(ctx, args[1])
			if err != nil {
				return err
			}
			if result.Remote {
				fmt.Println("Backed up to the cloud.")
			} else {
				fmt.Printf("Saved local backup %s\n", result.LocalPath)
			}
			if result.RemoteError != "" {
				fmt.Printf("Cloud error: %s\n", result.RemoteError)
			}
		case "pull":
			result, err := a.PullBackup(ctx, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Restored %s backup from %s\n", result.Source, result.ExportedAt.Format(time.RFC3339))
		default:
			return fmt.Errorf("usage: backup push|pull <user>")
		}
		return nil

	case "metrics-cleanup":
		fs := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := fs.Int("days", 30, "Keep records for the last N days")
		fs.Parse(args)

		affected, err := a.CleanupMetrics(ctx, *days)
		if err != nil {
			return err
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
		return nil

	case "usage":
		fs := flag.NewFlagSet("usage", flag.ExitOnError)
		days := fs.Int("days", 7, "Report the last N days")
		fs.Parse(args)

		usage, err := a.UsageReport(ctx, *days)
		if err != nil {
			return err
		}
		for _, d := range usage {
			fmt.Printf("%s  prompt=%d completion=%d executions=%d\n", d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalExecution)
		}
		fmt.Println(a.SysHealth())
		return nil

	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Println("Usage: nutrition-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  plan [-start YYYY-MM-DD] <user> <request>   Generate a 30-day meal plan")
	fmt.Println("  revise <user> <feedback>                    Revise the latest plan")
	fmt.Println("  shopping <user>                             Print the latest shopping list")
	fmt.Println("  export <user> <file.xlsx>                   Export the latest shopping list")
	fmt.Println("  summary <user> [YYYY-MM-DD]                 Daily tracking summary")
	fmt.Println("  backup push|pull <user>                     Back up or restore a user's data")
	fmt.Println("  usage [-days N]                             LLM usage and system health")
	fmt.Println("  metrics-cleanup [-days N]                   Remove old metric records")
}
