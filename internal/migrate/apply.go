package migrate

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gorm.io/gorm"
)

// Confirm reads one line from r and only accepts an exact "yes"; EOF or
// anything else refuses, so a script piping empty input cannot apply a
// migration by mistake.
func Confirm(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return false
	}
	return strings.TrimSpace(scanner.Text()) == "yes"
}

// Apply executes a migration script against db, one statement at a time
// inside a transaction. Statements are split on ';' after stripping line
// comments, which is safe for the scripts this package generates.
func Apply(db *gorm.DB, script string) error {
	stmts := SplitStatements(script)
	if len(stmts) == 0 {
		return fmt.Errorf("migration script contains no statements")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("exec %q: %w", abbreviate(stmt), err)
			}
		}
		return nil
	})
}

// SplitStatements breaks a script into executable statements, dropping
// `--` comment lines and blank statements.
func SplitStatements(script string) []string {
	var clean []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		clean = append(clean, line)
	}
	var stmts []string
	for _, raw := range strings.Split(strings.Join(clean, "\n"), ";") {
		stmt := strings.TrimSpace(raw)
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func abbreviate(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 60 {
		return stmt[:60] + "..."
	}
	return stmt
}
