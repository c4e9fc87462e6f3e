package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/draftkit/draftroom/go/internal/dbconfig"
)

// Player mirrors the players.json layout.
type Player struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Position string    `json:"position"`
	Team     string    `json:"team"`
	ADPRank  int       `json:"adp_rank"`
}

func main() {
	path := "go/internal/assets/players.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	var players []Player
	if err := json.Unmarshal(data, &players); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal players: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	total, inserted, skipped, errs := len(players), 0, 0, 0
	for _, p := range players {
		res, err := db.Exec(`
            INSERT INTO players (id, full_name, position, team, adp_rank)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (id) DO NOTHING`,
			p.ID, p.FullName, p.Position, p.Team, p.ADPRank,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert %s: %v\n", p.FullName, err)
			errs++
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			skipped++
		} else {
			inserted++
		}
	}

	fmt.Printf("players: total=%d inserted=%d skipped=%d errors=%d\n", total, inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
