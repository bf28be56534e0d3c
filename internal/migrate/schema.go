package migrate

// The schema is declared statically rather than reflected off the GORM models
// at runtime. The migration generator reads only this description, so its
// output is deterministic and reviewable in isolation.

type Column struct {
	Name       string
	Type       string
	Constraint string
}

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string
}

type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
	Uniques     []string // composite unique constraints, raw column lists
}

// Schema returns all application tables in dependency order: referenced
// tables first, so CREATE runs forward and DROP runs in reverse.
func Schema() []Table {
	return []Table{
		{
			Name: "users",
			Columns: []Column{
				{Name: "id", Type: "BIGINT UNSIGNED", Constraint: "NOT NULL AUTO_INCREMENT PRIMARY KEY"},
				{Name: "email", Type: "VARCHAR(128)", Constraint: "NOT NULL UNIQUE"},
				{Name: "name", Type: "VARCHAR(255)", Constraint: ""},
				{Name: "status", Type: "VARCHAR(16)", Constraint: "NOT NULL DEFAULT 'active'"},
				{Name: "last_accessed", Type: "DATETIME", Constraint: "NULL"},
				{Name: "created_at", Type: "DATETIME", Constraint: "NOT NULL DEFAULT CURRENT_TIMESTAMP"},
				{Name: "updated_at", Type: "DATETIME", Constraint: "NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"},
			},
		},
		{
			Name: "user_sessions",
			Columns: []Column{
				{Name: "id", Type: "BIGINT UNSIGNED", Constraint: "NOT NULL AUTO_INCREMENT PRIMARY KEY"},
				{Name: "user_id", Type: "BIGINT UNSIGNED", Constraint: "NOT NULL"},
				{Name: "token", Type: "VARCHAR(512)", Constraint: "NOT NULL UNIQUE"},
				{Name: "ip_address", Type: "VARCHAR(45)", Constraint: ""},
				{Name: "expires_at", Type: "DATETIME", Constraint: "NOT NULL"},
				{Name: "is_active", Type: "BOOLEAN", Constraint: "NOT NULL DEFAULT TRUE"},
				{Name: "created_at", Type: "DATETIME", Constraint: "NOT NULL DEFAULT CURRENT_TIMESTAMP"},
				{Name: "updated_at", Type: "DATETIME", Constraint: "NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []ForeignKey{
				{Column: "user_id", RefTable: "users", RefColumn: "id", OnDelete: "CASCADE"},
			},
		},
		{
			Name: "files",
			Columns: []Column{
				{Name: "id", Type: "BIGINT UNSIGNED", Constraint: "NOT NULL AUTO_INCREMENT PRIMARY KEY"},
				{Name: "file_id", Type: "VARCHAR(36)", Constraint: "NOT NULL UNIQUE"},
				{Name: "user_id", Type: "BIGINT UNSIGNED", Constraint: "NOT NULL"},
				{Name: "file_name", Type: "VARCHAR(256)", Constraint: "NOT NULL"},
				{Name: "file_size", Type: "BIGINT", Constraint: "NOT NULL DEFAULT 0"},
				{Name: "file_type", Type: "VARCHAR(32)", Constraint: ""},
				{Name: "content_hash", Type: "VARCHAR(64)", Constraint: ""},
				{Name: "storage_path", Type: "VARCHAR(512)", Constraint: ""},
				{Name: "status", Type: "VARCHAR(16)", Constraint: "NOT NULL DEFAULT 'pending'"},
				{Name: "processed_at", Type: "DATETIME", Constraint: "NULL"},
				{Name: "created_at", Type: "DATETIME", Constraint: "NOT NULL DEFAULT CURRENT_TIMESTAMP"},
				{Name: "updated_at", Type: "DATETIME", Constraint: "NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []ForeignKey{
				{Column: "user_id", RefTable: "users", RefColumn: "id", OnDelete: "RESTRICT"},
			},
		},
		{
			Name: "file_chunks",
			Columns: []Column{
				{Name: "id", Type: "BIGINT UNSIGNED", Constraint: "NOT NULL AUTO_INCREMENT PRIMARY KEY"},
				{Name: "file_id", Type: "BIGINT UNSIGNED", Constraint: "NOT NULL"},
				{Name: "chunk_index", Type: "INT", Constraint: "NOT NULL"},
				{Name: "content", Type: "TEXT", Constraint: "NOT NULL"},
				{Name: "embedding_id", Type: "VARCHAR(64)", Constraint: ""},
				{Name: "token_count", Type: "INT", Constraint: "NOT NULL DEFAULT 0"},
				{Name: "created_at", Type: "DATETIME", Constraint: "NOT NULL DEFAULT CURRENT_TIMESTAMP"},
				{Name: "updated_at", Type: "DATETIME", Constraint: "NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []ForeignKey{
				{Column: "file_id", RefTable: "files", RefColumn: "id", OnDelete: "CASCADE"},
			},
			Uniques: []string{"file_id, chunk_index"},
		},
		{
			Name: "conversation_turns",
			Columns: []Column{
				{Name: "id", Type: "BIGINT UNSIGNED", Constraint: "NOT NULL AUTO_INCREMENT PRIMARY KEY"},
				{Name: "conversation_id", Type: "VARCHAR(64)", Constraint: "NOT NULL"},
				{Name: "user_id", Type: "BIGINT UNSIGNED", Constraint: "NOT NULL"},
				{Name: "role", Type: "VARCHAR(16)", Constraint: "NOT NULL"},
				{Name: "content", Type: "TEXT", Constraint: "NOT NULL"},
				{Name: "citations", Type: "TEXT", Constraint: ""},
				{Name: "created_at", Type: "DATETIME", Constraint: "NOT NULL DEFAULT CURRENT_TIMESTAMP"},
			},
			ForeignKeys: []ForeignKey{
				{Column: "user_id", RefTable: "users", RefColumn: "id", OnDelete: "RESTRICT"},
			},
		},
	}
}
