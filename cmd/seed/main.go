// Seed loads the annual placement CSV exported by the TTFPP directorate:
// students, their host communities, and the placements joining the two.
// Rows are upserted, so re-running with a corrected export is safe.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CLI flags
var (
	csvPath   = flag.String("csv", "", "Path to the placement CSV (required)")
	dsn       = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	sessionID = flag.String("session", "", "Academic session name, e.g. 2025/2026 (required)")
	startDate = flag.String("start", "", "Programme start date YYYY-MM-DD (required)")
	weeks     = flag.Int("weeks", 8, "Placement duration in weeks")
	dryRun    = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm   = flag.Bool("confirm", false, "Required to write to the database")
)

// CSV contract
// index_number,full_name,phone,community,district,region

type PlacementCSV struct {
	IndexNumber string
	FullName    string
	Phone       string
	Community   string
	District    string
	Region      string
}

// titleCaser normalizes community/district names from the export, which mixes
// ALL CAPS and lowercase rows.
var titleCaser = cases.Title(language.English)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *csvPath == "" {
		fatalf("--csv is required")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}
	if *sessionID == "" {
		fatalf("--session is required")
	}
	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		fatalf("--start must be YYYY-MM-DD: %v", err)
	}

	rows, err := loadCSV(*csvPath)
	if err != nil {
		fatalf("CSV error: %v", err)
	}

	fmt.Printf("Loaded %d placements from %s\n", len(rows), *csvPath)

	if *dryRun {
		for _, row := range rows {
			fmt.Printf("  %s  %s  →  %s, %s\n", row.IndexNumber, row.FullName, row.Community, row.District)
		}
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	sessID, err := upsertSession(ctx, tx, *sessionID)
	if err != nil {
		fatalf("upsert session: %v", err)
	}

	var users, communities, placements int
	communityIDs := map[string]string{}

	for _, row := range rows {
		userID, inserted, err := upsertUser(ctx, tx, row)
		if err != nil {
			fatalf("upsert user %s: %v", row.IndexNumber, err)
		}
		if inserted {
			users++
		}

		key := row.Community + "|" + row.District
		communityID, ok := communityIDs[key]
		if !ok {
			communityID, inserted, err = upsertCommunity(ctx, tx, row)
			if err != nil {
				fatalf("upsert community %s: %v", row.Community, err)
			}
			communityIDs[key] = communityID
			if inserted {
				communities++
			}
		}

		inserted, err = upsertPlacement(ctx, tx, userID, sessID, communityID, start, *weeks)
		if err != nil {
			fatalf("upsert placement %s: %v", row.IndexNumber, err)
		}
		if inserted {
			placements++
		}
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}

	fmt.Printf("Seed complete: %d new users, %d new communities, %d new placements\n",
		users, communities, placements)
}

func loadCSV(path string) ([]PlacementCSV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	r := csv.NewReader(br)
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	required := []string{"index_number", "full_name", "phone", "community", "district"}
	for _, k := range required {
		if _, ok := idx[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	var out []PlacementCSV
	line := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		line++

		row := PlacementCSV{
			IndexNumber: strings.TrimSpace(rec[idx["index_number"]]),
			FullName:    titleCaser.String(strings.ToLower(strings.TrimSpace(rec[idx["full_name"]]))),
			Phone:       strings.TrimSpace(rec[idx["phone"]]),
			Community:   titleCaser.String(strings.ToLower(strings.TrimSpace(rec[idx["community"]]))),
			District:    titleCaser.String(strings.ToLower(strings.TrimSpace(rec[idx["district"]]))),
		}
		if i, ok := idx["region"]; ok {
			row.Region = titleCaser.String(strings.ToLower(strings.TrimSpace(rec[i])))
		}

		if row.IndexNumber == "" || row.Phone == "" || row.Community == "" {
			return nil, fmt.Errorf("line %d: index_number, phone and community are required", line)
		}
		out = append(out, row)
	}

	return out, nil
}

func upsertSession(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	id := uuid.NewString()
	err := tx.QueryRowContext(ctx, `
		INSERT INTO ttfpp.academic_sessions (id, name, active, created_at, updated_at)
		VALUES ($1, $2, true, now(), now())
		ON CONFLICT (name) DO UPDATE SET active = true, updated_at = now()
		RETURNING id
	`, id, name).Scan(&id)
	return id, err
}

func upsertUser(ctx context.Context, tx *sql.Tx, row PlacementCSV) (string, bool, error) {
	id := uuid.NewString()
	var inserted bool
	err := tx.QueryRowContext(ctx, `
		INSERT INTO app_auth.users (user_id, index_number, full_name, phone, role, claimed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'student', false, now(), now())
		ON CONFLICT (index_number) DO UPDATE SET full_name = EXCLUDED.full_name, phone = EXCLUDED.phone, updated_at = now()
		RETURNING user_id, (xmax = 0)
	`, id, row.IndexNumber, row.FullName, row.Phone).Scan(&id, &inserted)
	return id, inserted, err
}

func upsertCommunity(ctx context.Context, tx *sql.Tx, row PlacementCSV) (string, bool, error) {
	id := uuid.NewString()
	var inserted bool
	err := tx.QueryRowContext(ctx, `
		INSERT INTO ttfpp.communities (id, name, district, region, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (name, district) DO UPDATE SET region = EXCLUDED.region, updated_at = now()
		RETURNING id, (xmax = 0)
	`, id, row.Community, row.District, row.Region).Scan(&id, &inserted)
	return id, inserted, err
}

func upsertPlacement(ctx context.Context, tx *sql.Tx, userID, sessionID, communityID string, start time.Time, weeks int) (bool, error) {
	id := uuid.NewString()
	var inserted bool
	err := tx.QueryRowContext(ctx, `
		INSERT INTO ttfpp.placements (id, user_id, session_id, community_id, start_date, duration_weeks, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, now(), now())
		ON CONFLICT (user_id, session_id) DO UPDATE SET community_id = EXCLUDED.community_id, start_date = EXCLUDED.start_date, duration_weeks = EXCLUDED.duration_weeks, updated_at = now()
		RETURNING id, (xmax = 0)
	`, id, userID, sessionID, communityID, start, weeks).Scan(&id, &inserted)
	return inserted, err
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
