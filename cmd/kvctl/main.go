// kvctl is an operator CLI for a kvdb store directory.
//
// Usage:
//
//	kvctl [flags] <command> [args...]
//	kvctl [flags]                       Start an interactive REPL
//
// Commands:
//
//	get <key>           Print the value for key, or "(not found)"
//	put <key> <value>   Insert or replace key
//	delete <key>        Remove key
//	stats               Print the open generation count and cache size
//	config              Print the resolved configuration as JSON
//
// Flags:
//
//	-d, --dir string                store directory (default ".kvdb")
//	-c, --config string              explicit config file path
//	    --create-if-missing          create the store directory if missing (default true)
//	    --write-buffer-size int       freeze threshold in bytes
//	    --cache-size int              open generation reader cache capacity
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"kvdb"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "kvctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("kvctl", flag.ContinueOnError)

	dir := fs.StringP("dir", "d", "", "store directory")
	configPath := fs.StringP("config", "c", "", "explicit config file path")
	createIfMissing := fs.Bool("create-if-missing", true, "create the store directory if missing")
	writeBufferSize := fs.Int("write-buffer-size", 0, "freeze threshold in bytes")
	cacheSize := fs.Int("cache-size", 0, "open generation reader cache capacity")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: kvctl [flags] <command> [args...]")
		fmt.Fprintln(os.Stderr, "       kvctl [flags]   (interactive REPL)")
		fmt.Fprintln(os.Stderr, "\nCommands: get <key> | put <key> <value> | delete <key> | stats | config")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getwd: %w", err)
	}

	cliOverrides := Config{Dir: *dir, CreateIfMissing: *createIfMissing, WriteBufferSize: *writeBufferSize, CacheSize: *cacheSize}

	cfg, _, err := LoadConfig(workDir, *configPath, cliOverrides, fs.Changed("dir"))
	if err != nil {
		return err
	}

	if fs.Changed("write-buffer-size") {
		cfg.WriteBufferSize = *writeBufferSize
	}

	if fs.Changed("cache-size") {
		cfg.CacheSize = *cacheSize
	}

	if fs.Changed("create-if-missing") {
		cfg.CreateIfMissing = *createIfMissing
	}

	rest := fs.Args()

	if len(rest) > 0 && rest[0] == "config" {
		out, err := FormatConfig(cfg)
		if err != nil {
			return err
		}

		fmt.Println(out)

		return nil
	}

	var opts []kvdb.Option

	opts = append(opts, kvdb.WithCreateIfMissing(cfg.CreateIfMissing))

	if cfg.WriteBufferSize > 0 {
		opts = append(opts, kvdb.WithWriteBufferSize(cfg.WriteBufferSize))
	}

	if cfg.CacheSize > 0 {
		opts = append(opts, kvdb.WithCacheSize(cfg.CacheSize))
	}

	db, err := kvdb.Open(cfg.Dir, opts...)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Dir, err)
	}
	defer func() { _ = db.Close() }()

	if len(rest) == 0 {
		repl := &REPL{db: db, dir: cfg.Dir}

		return repl.Run()
	}

	return runOneShot(db, rest)
}

func runOneShot(db *kvdb.DB, args []string) error {
	switch args[0] {
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: get <key>")
		}

		v, err := db.Get([]byte(args[1]))
		if err != nil {
			return err
		}

		if v == nil {
			fmt.Println("(not found)")

			return nil
		}

		fmt.Println(string(v))

		return nil

	case "put":
		if len(args) != 3 {
			return fmt.Errorf("usage: put <key> <value>")
		}

		return db.Put([]byte(args[1]), []byte(args[2]))

	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: delete <key>")
		}

		return db.Delete([]byte(args[1]))

	case "stats":
		fmt.Printf("generations: %d\n", db.GenerationCount())
		fmt.Printf("cached readers: %d\n", db.CacheLen())

		return nil

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}
