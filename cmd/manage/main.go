// Command manage is the schema management tool. Its migrations are
// deliberately destructive: every run drops and recreates all tables, so
// applying one wipes the database. Generation and application are separate
// steps so the SQL can be reviewed before anything is executed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"docuchat/internal/config"
	"docuchat/internal/migrate"
	"docuchat/internal/model"
	mysqlClient "docuchat/internal/platform/mysql"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "generate-migration":
		err = runGenerate(os.Args[2:])
	case "apply-migration":
		err = runApply(os.Args[2:])
	case "db-info":
		err = runDBInfo()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: manage <command> [flags]

commands:
  generate-migration   write a drop-and-recreate SQL script to the migrations dir
  apply-migration      execute a generated script (destroys all data)
  db-info              print the configured database and tables`)
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate-migration", flag.ExitOnError)
	dir := fs.String("dir", "migrations/sql", "directory for generated scripts")
	description := fs.String("description", "recreate all tables", "migration description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	version := migrate.NewVersion(time.Now())
	sql := migrate.GenerateSQL(migrate.Schema(), version, *description)
	path, err := migrate.SaveMigration(*dir, version, sql)
	if err != nil {
		return err
	}

	fmt.Printf("generated %s\n", path)
	fmt.Println("review the script, then apply it with: manage apply-migration -file " + path)
	return nil
}

func runApply(args []string) error {
	fs := flag.NewFlagSet("apply-migration", flag.ExitOnError)
	file := fs.String("file", "", "path to the generated migration script")
	skipReplica := fs.Bool("skip-replica", false, "do not replay the script on the configured replica")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read migration script: %w", err)
	}
	script := string(raw)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("target database: %s on %s:%d\n", cfg.MySQL.DB, cfg.MySQL.Host, cfg.MySQL.Port)
	fmt.Println("WARNING: this drops and recreates every table. ALL DATA WILL BE LOST.")
	fmt.Print(`type "yes" to continue: `)

	if !migrate.Confirm(os.Stdin) {
		return fmt.Errorf("aborted: confirmation not given")
	}

	ctx := context.Background()
	db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return err
	}
	if err := migrate.Apply(db, script); err != nil {
		return err
	}
	fmt.Println("migration applied")

	if cfg.MySQL.ReplicaDSN != "" && !*skipReplica {
		replica, err := mysqlClient.New(ctx, cfg.MySQL.ReplicaDSN)
		if err != nil {
			return fmt.Errorf("connect replica: %w", err)
		}
		if err := migrate.Apply(replica, script); err != nil {
			return fmt.Errorf("apply on replica: %w", err)
		}
		fmt.Println("migration applied on replica")
	}
	return nil
}

func runDBInfo() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("database: %s\n", cfg.MySQL.DB)
	fmt.Printf("host:     %s:%d\n", cfg.MySQL.Host, cfg.MySQL.Port)
	fmt.Printf("user:     %s\n", cfg.MySQL.User)
	if cfg.MySQL.ReplicaDSN != "" {
		fmt.Println("replica:  configured")
	}
	fmt.Println("tables:")
	for _, t := range migrate.Schema() {
		fmt.Printf("  %s (%d columns)\n", t.Name, len(t.Columns))
	}
	fmt.Println("  migrations")

	db, err := mysqlClient.New(context.Background(), cfg.MySQLDSN())
	if err != nil {
		fmt.Printf("database unreachable: %v\n", err)
		return nil
	}
	var records []model.MigrationRecord
	if err := db.Order("applied_at DESC").Find(&records).Error; err != nil {
		fmt.Println("no migrations table; run generate-migration and apply-migration first")
		return nil
	}
	fmt.Println("applied migrations:")
	for _, rec := range records {
		fmt.Printf("  %s  %s  (%s)\n", rec.Version, rec.Description, rec.AppliedAt.Format(time.RFC3339))
	}
	return nil
}
