package main

import (
	"database/sql"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/calibra/backend/internal/infrastructure/config"
	"github.com/calibra/backend/internal/infrastructure/logger"
	"github.com/calibra/backend/internal/infrastructure/migration"
	"github.com/calibra/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const usage = `Calibra schema migrations

Usage:
  migrate [flags] <command> [args]

Commands:
  up                 apply pending migrations
  down               roll back every migration
  step <n>           apply n migrations, negative rolls back
  goto <version>     migrate to version
  status             print the current version
  force <version>    set the version without running it
  drop -confirm      drop every database object
  create <name>      write a new empty migration pair into -dir
  list               list the migrations

Flags:
`

func main() {
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	level := flag.String("log-level", "info", "log level")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout", TimeFormat: time.DateTime})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	var src fs.FS = migrations.FS
	if *dir != "" {
		src = os.DirFS(*dir)
	}

	if err := run(args, *dir, src, log); err != nil {
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func run(args []string, dir string, src fs.FS, log *zap.Logger) error {
	switch args[0] {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate -dir migrations create <name>")
		}
		if dir == "" {
			dir = "migrations"
		}
		p, err := migration.Create(dir, args[1], time.Now())
		if err != nil {
			return err
		}
		log.Info("Migration created", zap.String("up", p.UpPath), zap.String("down", p.DownPath))
		return nil
	case "list":
		entries, err := migration.List(src)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%d  %s  down=%t\n", e.Version, e.Name, e.HasDown)
		}
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := migration.New(db, src, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Closing migrator", zap.Error(err))
		}
	}()

	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("version must be positive")
		}
		return m.To(uint(n))
	case "status", "version":
		st, err := m.Status()
		if err != nil {
			return err
		}
		if !st.Applied {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Schema version", zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
		return nil
	case "force":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(n)
	case "drop":
		if len(args) < 2 || (args[1] != "-confirm" && args[1] != "--confirm") {
			return fmt.Errorf("refusing to drop without -confirm")
		}
		return m.Drop()
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s needs a numeric argument", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", args[0], err)
	}
	return n, nil
}
