package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const VersionLayout = "20060102_150405"

// NewVersion formats t as a migration version string.
func NewVersion(t time.Time) string {
	return t.UTC().Format(VersionLayout)
}

// GenerateSQL renders a full drop-and-recreate script for the given tables.
// Drops run in reverse declaration order so foreign key references are gone
// before the tables they point at; creates run forward. The script finishes
// by recreating the migrations audit table and recording its own version.
// Output is a pure function of the inputs.
func GenerateSQL(tables []Table, version, description string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("-- Migration %s\n", version))
	b.WriteString(fmt.Sprintf("-- %s\n", description))
	b.WriteString("-- WARNING: destructive. Drops and recreates every table; all data is lost.\n\n")

	b.WriteString("SET FOREIGN_KEY_CHECKS = 0;\n\n")

	for i := len(tables) - 1; i >= 0; i-- {
		b.WriteString(fmt.Sprintf("DROP TABLE IF EXISTS `%s`;\n", tables[i].Name))
	}
	b.WriteString("DROP TABLE IF EXISTS `migrations`;\n\n")

	for _, t := range tables {
		writeCreate(&b, t)
		b.WriteString("\n")
	}

	b.WriteString("CREATE TABLE `migrations` (\n")
	b.WriteString("    `version` VARCHAR(32) NOT NULL PRIMARY KEY,\n")
	b.WriteString("    `description` VARCHAR(255) NOT NULL,\n")
	b.WriteString("    `applied_at` DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP\n")
	b.WriteString(") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;\n\n")

	b.WriteString(fmt.Sprintf("INSERT INTO `migrations` (`version`, `description`) VALUES ('%s', '%s');\n\n",
		version, strings.ReplaceAll(description, "'", "''")))

	b.WriteString("SET FOREIGN_KEY_CHECKS = 1;\n")
	return b.String()
}

func writeCreate(b *strings.Builder, t Table) {
	b.WriteString(fmt.Sprintf("CREATE TABLE `%s` (\n", t.Name))

	lines := make([]string, 0, len(t.Columns)+len(t.Uniques)+len(t.ForeignKeys))
	for _, c := range t.Columns {
		line := fmt.Sprintf("    `%s` %s", c.Name, c.Type)
		if c.Constraint != "" {
			line += " " + c.Constraint
		}
		lines = append(lines, line)
	}
	for _, u := range t.Uniques {
		var cols []string
		for _, c := range strings.Split(u, ",") {
			cols = append(cols, fmt.Sprintf("`%s`", strings.TrimSpace(c)))
		}
		lines = append(lines, fmt.Sprintf("    UNIQUE KEY `ux_%s` (%s)", t.Name, strings.Join(cols, ", ")))
	}
	for _, fk := range t.ForeignKeys {
		line := fmt.Sprintf("    CONSTRAINT `fk_%s_%s` FOREIGN KEY (`%s`) REFERENCES `%s` (`%s`)",
			t.Name, fk.Column, fk.Column, fk.RefTable, fk.RefColumn)
		if fk.OnDelete != "" {
			line += " ON DELETE " + fk.OnDelete
		}
		lines = append(lines, line)
	}

	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;\n")
}

// SaveMigration writes the script to dir as <version>_recreate_all_tables.sql
// and returns the path. dir is created if missing.
func SaveMigration(dir, version, sql string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create migrations dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_recreate_all_tables.sql", version))
	if err := os.WriteFile(path, []byte(sql), 0o644); err != nil {
		return "", fmt.Errorf("write migration file: %w", err)
	}
	return path, nil
}
