// Command catalogcheck validates a catalog file and prints its tier tables.
// With -database (Postgres) or -sqlite it also prices the paper voucher
// volumes recorded there.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/backend-fundraise/internal/catalog"
	"github.com/noah-isme/backend-fundraise/internal/obs"
	"github.com/noah-isme/backend-fundraise/internal/repo"
)

func main() {
	_ = godotenv.Load()
	logger := obs.NewLogger("console", "info")

	path := flag.String("catalog", os.Getenv("CATALOG_PATH"), "YAML catalog file (built-in catalog when empty)")
	dbURL := flag.String("database", "", "Postgres URL holding recorded vouchers")
	sqlitePath := flag.String("sqlite", "", "SQLite file holding recorded vouchers")
	strict := flag.Bool("strict", false, "exit non-zero on warnings")
	flag.Parse()

	cat, err := load(*path)
	if err != nil {
		var cfgErr *catalog.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Error().Str("product", cfgErr.ProductID).Msg(cfgErr.Error())
		} else {
			logger.Error().Err(err).Msg("load catalog")
		}
		os.Exit(1)
	}

	printTiers(os.Stdout, cat)
	warnings := cat.Warnings()
	for _, w := range warnings {
		logger.Warn().Str("product", w.ProductID).Msg(w.Message)
	}

	if *dbURL != "" || *sqlitePath != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		volumes, err := recordedVolumes(ctx, *dbURL, *sqlitePath)
		if err != nil {
			logger.Error().Err(err).Msg("read recorded volumes")
			os.Exit(1)
		}
		if err := printRecorded(os.Stdout, cat, volumes); err != nil {
			logger.Error().Err(err).Msg("print recorded volumes")
			os.Exit(1)
		}
	}

	if *strict && len(warnings) > 0 {
		os.Exit(2)
	}
}

func load(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(path)
}

func printTiers(w io.Writer, cat *catalog.Catalog) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tCOST\tPRICE\tFROM\tPLATFORM\tGROUP")
	for _, p := range cat.Products() {
		for _, t := range p.Tiers {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", p.ID, p.UnitCost, p.UnitPrice, t.Min, t.Platform, t.Group)
		}
	}
	_ = tw.Flush()
}

// recordedVolumes reads from Postgres when dbURL is set, SQLite otherwise.
func recordedVolumes(ctx context.Context, dbURL, sqlitePath string) (map[string]int64, error) {
	if dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return (&repo.PostgresOrders{Pool: pool}).RecordedVolumes(ctx)
	}
	store, err := repo.OpenSQLite(sqlitePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.RecordedVolumes(ctx)
}

func printRecorded(w io.Writer, cat *catalog.Catalog, volumes map[string]int64) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nPRODUCT\tRECORDED\tTIER\tGROUP\tPLATFORM")
	for _, p := range cat.Products() {
		v := volumes[p.ID]
		split := p.Split(v, v)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", p.ID, v, split.Tier, split.Group, split.Platform)
	}
	return tw.Flush()
}
