package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		dsn = os.Args[1]
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL is required (env var or first argument)")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	sqlContent, err := os.ReadFile("scripts/init_db.sql")
	if err != nil {
		log.Fatalf("failed to read init_db.sql: %v", err)
	}

	if _, err := db.Exec(string(sqlContent)); err != nil {
		log.Fatalf("failed to execute SQL script: %v", err)
	}

	// Verify the tables came up.
	tables := []string{"users", "clientes", "proyectos", "proyecto_usuarios", "tramos_proyecto", "metas_proyecto"}
	for _, table := range tables {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			log.Printf("warning: failed to query table %s: %v", table, err)
			continue
		}
		fmt.Printf("table %s: %d records\n", table, count)
	}

	fmt.Println("database setup completed")
}
