// Command migrate applies the receipt schema in deployed environments:
//
//	migrate -cmd up|down|status|version|validate
//	migrate -cmd to -version 20260301090000
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/flashmarket/storefront/pkg/config"
	"github.com/flashmarket/storefront/pkg/db"
	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up, down, status, version, to or validate")
	version := flag.String("version", "", "target version for -cmd=to")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(context.Background(), *cmd, *version); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd, version string) error {
	// validate only reads the embedded files.
	if cmd == "validate" {
		if err := migrate.Validate(); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer client.Close()
	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	dialect := client.Dialect()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": cmd, "dialect": dialect})

	var results []migrate.Result
	switch cmd {
	case "up":
		results, err = migrate.Up(ctx, sqlDB, dialect)
	case "down":
		results, err = migrate.Down(ctx, sqlDB, dialect)
	case "to":
		target, perr := strconv.ParseInt(version, 10, 64)
		if perr != nil {
			return fmt.Errorf("-version must be YYYYMMDDHHMMSS or 0: %w", perr)
		}
		results, err = migrate.To(ctx, sqlDB, dialect, target)
	case "status":
		return printStatus(ctx, sqlDB, dialect)
	case "version":
		v, verr := migrate.Version(ctx, sqlDB, dialect)
		if verr != nil {
			return verr
		}
		fmt.Println(v)
		return nil
	default:
		return fmt.Errorf("unknown command")
	}

	for _, r := range results {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     r.Version,
			"file":        r.File,
			"direction":   r.Direction,
			"duration_ms": r.Duration.Milliseconds(),
		}), "migrate.step")
	}
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "steps", len(results)), "migrate.done")
	return nil
}

func printStatus(ctx context.Context, sqlDB *sql.DB, dialect string) error {
	states, err := migrate.Status(ctx, sqlDB, dialect)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, st := range states {
		state, at := "pending", "-"
		if st.Applied {
			state, at = "applied", st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", st.Version, state, at, st.File)
	}
	return w.Flush()
}
