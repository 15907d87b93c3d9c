// Package migrations embeds the goose SQL migrations for every storage driver.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql clickhouse/*.sql
var content embed.FS

// SQLite returns the migrations for the sqlite3 dialect
func SQLite() fs.FS {
	return mustSub("sqlite")
}

// ClickHouse returns the migrations for the clickhouse dialect
func ClickHouse() fs.FS {
	return mustSub("clickhouse")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(content, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
