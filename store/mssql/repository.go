// Package mssql implements the store repository on SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/aluiziolira/go-race-watch/store"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Repository stores match rows in a single SQL Server table.
type Repository struct {
	db             *sql.DB
	table          string
	commandTimeout time.Duration
}

// NewRepository opens and pings the database.
func NewRepository(dsn, table string, commandTimeout time.Duration) (*Repository, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name: %q", table)
	}

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{
		db:             db,
		table:          table,
		commandTimeout: commandTimeout,
	}, nil
}

// EnsureSchema creates the match table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		IF OBJECT_ID(N'%[1]s', N'U') IS NULL
		CREATE TABLE %[1]s (
			[ID] INT IDENTITY(1,1) PRIMARY KEY,
			[Horse] NVARCHAR(200) NOT NULL,
			[HorseURL] NVARCHAR(500) NOT NULL,
			[Race] NVARCHAR(400),
			[RaceURL] NVARCHAR(500),
			[Day] NVARCHAR(20),
			[Odds] NVARCHAR(20),
			[Draw] NVARCHAR(10),
			[Jockey] NVARCHAR(200),
			[Trainer] NVARCHAR(200),
			[Commentary] NVARCHAR(MAX),
			[MatchedTerms] NVARCHAR(400),
			[ScrapedAt] DATETIME2 NOT NULL,
			CONSTRAINT [UQ_%[1]s_HorseRace] UNIQUE ([HorseURL], [RaceURL])
		)`, r.table)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", r.table, err)
	}
	return nil
}

// UpsertMatch saves or refreshes a match row keyed by horse and race
// address.
func (r *Repository) UpsertMatch(ctx context.Context, row *store.StoredMatch, horseURL, raceURL string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		MERGE INTO %s AS target
		USING (SELECT @HorseURL AS HorseURL, @RaceURL AS RaceURL) AS source
		ON target.[HorseURL] = source.HorseURL AND target.[RaceURL] = source.RaceURL
		WHEN MATCHED THEN
			UPDATE SET
				[Horse] = @Horse,
				[Race] = @Race,
				[Day] = @Day,
				[Odds] = @Odds,
				[Draw] = @Draw,
				[Jockey] = @Jockey,
				[Trainer] = @Trainer,
				[Commentary] = @Commentary,
				[MatchedTerms] = @MatchedTerms,
				[ScrapedAt] = @ScrapedAt
		WHEN NOT MATCHED THEN
			INSERT ([Horse], [HorseURL], [Race], [RaceURL], [Day], [Odds], [Draw], [Jockey], [Trainer], [Commentary], [MatchedTerms], [ScrapedAt])
			VALUES (@Horse, @HorseURL, @Race, @RaceURL, @Day, @Odds, @Draw, @Jockey, @Trainer, @Commentary, @MatchedTerms, @ScrapedAt)
		OUTPUT $action;`, r.table)

	var action string
	err := r.db.QueryRowContext(ctx,
		query,
		sql.Named("Horse", row.Horse),
		sql.Named("HorseURL", horseURL),
		sql.Named("Race", row.Race),
		sql.Named("RaceURL", raceURL),
		sql.Named("Day", row.Day),
		sql.Named("Odds", row.Odds),
		sql.Named("Draw", row.Draw),
		sql.Named("Jockey", row.Jockey),
		sql.Named("Trainer", row.Trainer),
		sql.Named("Commentary", row.Commentary),
		sql.Named("MatchedTerms", row.MatchedTerms),
		sql.Named("ScrapedAt", row.ScrapedAt),
	).Scan(&action)
	if err != nil {
		return false, fmt.Errorf("upsert match: %w", err)
	}

	return strings.EqualFold(action, "INSERT"), nil
}

// Search ranks stored rows by how many query keywords appear in their
// commentary, race, or horse columns. Plain LIKE scoring, no full-text
// index required.
func (r *Repository) Search(ctx context.Context, query string, limit int) ([]store.StoredMatch, error) {
	keywords := splitKeywords(query)
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	var (
		scoreParts []string
		whereParts []string
		args       []interface{}
	)
	for i, keyword := range keywords {
		name := fmt.Sprintf("kw%d", i)
		args = append(args, sql.Named(name, "%"+escapeLike(keyword)+"%"))
		match := fmt.Sprintf(
			"([Commentary] LIKE @%[1]s ESCAPE '\\' OR [Race] LIKE @%[1]s ESCAPE '\\' OR [Horse] LIKE @%[1]s ESCAPE '\\')",
			name,
		)
		whereParts = append(whereParts, match)
		scoreParts = append(scoreParts, fmt.Sprintf("(CASE WHEN %s THEN 1 ELSE 0 END)", match))
	}

	args = append(args, sql.Named("limit", limit))
	sqlText := fmt.Sprintf(`
		SELECT TOP (@limit)
			[Horse], [Race], [Day], [Odds], [Draw], [Jockey], [Trainer], [Commentary], [ScrapedAt],
			(%s) AS MatchCount
		FROM %s
		WHERE %s
		ORDER BY MatchCount DESC, [ScrapedAt] DESC`,
		strings.Join(scoreParts, " + "),
		r.table,
		strings.Join(whereParts, " OR "),
	)

	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("search matches: %w", err)
	}
	defer rows.Close()

	var results []store.StoredMatch
	for rows.Next() {
		var m store.StoredMatch
		if err := rows.Scan(
			&m.Horse, &m.Race, &m.Day, &m.Odds, &m.Draw,
			&m.Jockey, &m.Trainer, &m.Commentary, &m.ScrapedAt,
			&m.MatchCount,
		); err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return results, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func splitKeywords(query string) []string {
	var keywords []string
	for _, part := range strings.Fields(query) {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" {
			keywords = append(keywords, part)
		}
	}
	return keywords
}

func escapeLike(keyword string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`, "[", `\[`)
	return replacer.Replace(keyword)
}
