package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	persistlog "github.com/andriy1717/mastercity/internal/persistence/log"
	"github.com/andriy1717/mastercity/internal/sim/room"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "rooms":
			roomsCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

// listCmd prints the audit and game log files under the data dir.
func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	_ = fs.Parse(args)

	for _, kind := range []string{"audit", "games"} {
		names, err := logFiles(filepath.Join(*dataDir, kind), kind)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		for _, n := range names {
			fmt.Println(filepath.Join(kind, n))
		}
	}
}

// auditCmd replays the audit stream of one room from the JSONL logs.
func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	code := fs.String("room", "", "room code (required)")
	actor := fs.String("actor", "", "only entries of this player")
	failed := fs.Bool("failed", false, "only rejected commands")
	_ = fs.Parse(args)

	if strings.TrimSpace(*code) == "" {
		fmt.Fprintln(os.Stderr, "missing -room")
		os.Exit(2)
	}
	want := strings.ToUpper(strings.TrimSpace(*code))

	entries, err := readAudits(filepath.Join(*dataDir, "audit"), func(e room.AuditEntry) bool {
		if e.Room != want {
			return false
		}
		if *actor != "" && e.Actor != *actor {
			return false
		}
		return !*failed || !e.OK
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "audit:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		printJSON(e)
	}
	fmt.Fprintf(os.Stderr, "%d entries\n", len(entries))
}

func logFiles(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	// Hour-stamped names sort chronologically.
	sort.Strings(names)
	return names, nil
}

func readAudits(dir string, keep func(room.AuditEntry) bool) ([]room.AuditEntry, error) {
	names, err := logFiles(dir, "audit")
	if err != nil {
		return nil, err
	}
	var out []room.AuditEntry
	for _, name := range names {
		path := filepath.Join(dir, name)
		err := persistlog.ReadJSONL(path, func(line json.RawMessage) error {
			var e room.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return fmt.Errorf("%s: unmarshal: %w", name, err)
			}
			if keep(e) {
				out = append(out, e)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func printJSON(v any) {
	b, _ := json.Marshal(v)
	fmt.Println(string(b))
}
