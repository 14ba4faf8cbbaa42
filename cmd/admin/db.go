package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andriy1717/mastercity/internal/persistence/indexdb"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (default: <data>/index.db)")
	code := fs.String("room", "", "room code (audits)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "games"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index.db")
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	r, err := indexdb.OpenReader(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer r.Close()
	ctx := context.Background()

	switch q {
	case "games":
		games, err := r.RecentGames(ctx, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, g := range games {
			printJSON(g)
		}
	case "audits":
		if *code == "" {
			fmt.Fprintln(os.Stderr, "missing -room")
			os.Exit(2)
		}
		rows, err := r.RoomAudits(ctx, strings.ToUpper(*code), *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, a := range rows {
			printJSON(a)
		}
	case "catalogs":
		for _, name := range []string{"buildings", "civs", "tuning"} {
			d, err := r.CatalogDigest(ctx, name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
				continue
			}
			fmt.Printf("%s %s\n", name, d)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q, "(games|audits|catalogs)")
		os.Exit(2)
	}
}
