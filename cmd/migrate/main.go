package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"news_bot/internal/config"
	"news_bot/migrations"
)

type command struct {
	help string
	run  func(db *sql.DB, out io.Writer) error
}

var commands = map[string]command{
	"up": {"apply every pending migration", func(db *sql.DB, _ io.Writer) error {
		return goose.Up(db, ".")
	}},
	"down": {"roll back the last migration", func(db *sql.DB, _ io.Writer) error {
		return goose.Down(db, ".")
	}},
	"reset": {"roll back all migrations (drops the state table)", func(db *sql.DB, _ io.Writer) error {
		return goose.Reset(db, ".")
	}},
	"status": {"list migrations and whether they are applied", func(db *sql.DB, _ io.Writer) error {
		return goose.Status(db, ".")
	}},
	"version": {"print the applied schema version", func(db *sql.DB, out io.Writer) error {
		v, err := migrations.Version(db)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, v)
		return err
	}},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("migrate", flag.ContinueOnError)
	flags.SetOutput(stderr)
	envFile := flags.String("env", ".env", "optional dotenv file")
	dbPath := flags.String("db", "", "state database path (default: DATABASE_PATH)")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		usage(stderr)
		return 2
	}

	name := flags.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr)
		return 2
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "load env file %s: %v\n", *envFile, err)
		return 1
	}

	store, err := config.LoadStore()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if store.Backend != config.BackendSQLite {
		fmt.Fprintf(stderr, "STATE_BACKEND=%s has no schema to migrate; migrations apply to the %s backend only\n",
			store.Backend, config.BackendSQLite)
		return 1
	}
	if *dbPath != "" {
		store.Path = *dbPath
	}

	db, err := sql.Open("sqlite", store.Path)
	if err != nil {
		fmt.Fprintf(stderr, "open %s: %v\n", store.Path, err)
		return 1
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Setup(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := cmd.run(db, stdout); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", name, err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: migrate [-env file] [-db path] <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].help)
	}
}
