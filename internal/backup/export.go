package backup

import (
	"encoding/json"
	"os"
	"strings"

	"gorm.io/gorm"
)

// exportDatabaseJSON writes every user table as JSON to path. The
// export is the portable half of the database component: unlike the
// raw file snapshot it survives engine and schema-version changes.
func exportDatabaseJSON(db *gorm.DB, path string) error {
	tables, err := db.Migrator().GetTables()
	if err != nil {
		return err
	}

	dump := make(map[string][]map[string]interface{}, len(tables))
	for _, table := range tables {
		if strings.HasPrefix(table, "sqlite_") {
			continue // SQLite bookkeeping tables
		}
		var rows []map[string]interface{}
		if err := db.Table(table).Find(&rows).Error; err != nil {
			return err
		}
		dump[table] = rows
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
