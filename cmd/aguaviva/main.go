package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	kongdotenv "github.com/titusjaka/kong-dotenv-go"
	_ "modernc.org/sqlite"

	"github.com/rmenezes/aguaviva/internal/api"
	"github.com/rmenezes/aguaviva/internal/dataset"
	"github.com/rmenezes/aguaviva/internal/geo"
	"github.com/rmenezes/aguaviva/internal/ingest"
	"github.com/rmenezes/aguaviva/internal/metrics"
	"github.com/rmenezes/aguaviva/internal/store"
)

type cli struct {
	DB string `help:"Path to the SQLite database." default:"data/aguaviva.db" env:"AGUAVIVA_DB"`

	Serve  serveCmd  `cmd:"" default:"withargs" help:"Serve the dashboard and JSON API."`
	Ingest ingestCmd `cmd:"" help:"Load a SISAGUA CSV export into the database."`
}

type serveCmd struct {
	Port    string `help:"HTTP server port." default:"8080" env:"PORT"`
	GeoJSON string `help:"Path to the neighborhood boundaries GeoJSON." env:"AGUAVIVA_GEOJSON"`
}

type ingestCmd struct {
	Source  string `arg:"" help:"Path or URL of the cleaned SISAGUA CSV export."`
	Replace bool   `help:"Clear existing samples before loading."`
}

func openStore(path string) (*store.Store, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, db, nil
}

func (c *serveCmd) Run(root *cli) error {
	st, db, err := openStore(root.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	// A record store we cannot build is fatal; an empty one is merely
	// a dashboard with nothing to show yet.
	records, err := st.LoadSamples()
	if err != nil {
		return fmt.Errorf("load samples: %w", err)
	}
	if len(records) == 0 {
		log.Println("warning: no samples loaded; run `aguaviva ingest` first")
	}
	ds := dataset.New(records)
	metrics.SamplesLoaded.Set(float64(ds.Len()))
	log.Printf("record store built: %d records, %d neighborhoods", ds.Len(), len(ds.Options().Neighborhoods))

	var boundaries *geo.Boundaries
	if c.GeoJSON != "" {
		boundaries, err = geo.Load(c.GeoJSON)
		if err != nil {
			log.Printf("warning: boundary overlay disabled: %v", err)
			boundaries = nil
		} else {
			log.Printf("boundaries loaded: %d neighborhoods", len(boundaries.Names()))
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	server := api.NewServer(ds, boundaries, c.Port)
	log.Printf("starting server on :%s", c.Port)
	return server.Run(ctx)
}

func (c *ingestCmd) Run(root *cli) error {
	st, db, err := openStore(root.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Replace {
		if err := st.ClearSamples(); err != nil {
			return fmt.Errorf("clear samples: %w", err)
		}
		log.Println("existing samples cleared")
	}

	var reader io.Reader
	if strings.HasPrefix(c.Source, "http://") || strings.HasPrefix(c.Source, "https://") {
		log.Printf("downloading export from %s", c.Source)
		body, err := ingest.FetchCSV(c.Source)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(body)
	} else {
		f, err := os.Open(c.Source)
		if err != nil {
			return fmt.Errorf("open export: %w", err)
		}
		defer f.Close()
		reader = f
	}

	summary, err := ingest.Run(st, reader)
	if err != nil {
		return err
	}
	log.Printf("ingest complete: %d parsed, %d inserted", summary.Parsed, summary.Inserted)

	total, err := st.CountSamples()
	if err != nil {
		return fmt.Errorf("count samples: %w", err)
	}
	log.Printf("database now holds %d samples", total)
	return nil
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("aguaviva"),
		kong.Description("Water-quality dashboard over SISAGUA sample data."),
		kong.Configuration(kongdotenv.ENVFileReader, ".env"),
	)
	if err := kctx.Run(&c); err != nil {
		log.Fatalf("%s: %v", kctx.Command(), err)
	}
}
