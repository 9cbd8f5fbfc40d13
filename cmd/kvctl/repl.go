package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"kvdb"
)

// REPL is the interactive command loop kvctl falls into when invoked with
// no one-shot command.
type REPL struct {
	db    *kvdb.DB
	dir   string
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".kvctl_history")
}

// Run starts the REPL loop, returning when the user exits or input ends.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("kvctl - %s\n", r.dir)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("kvctl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "get":
			r.cmdGet(args)

		case "put":
			r.cmdPut(args)

		case "del", "delete":
			r.cmdDelete(args)

		case "stats":
			r.cmdStats()

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		r.liner.WriteHistory(f)
		f.Close()
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{"get", "put", "del", "delete", "stats", "help", "exit", "quit", "q"}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  get <key>            Print the value for key")
	fmt.Println("  put <key> <value>    Insert or replace key")
	fmt.Println("  del <key>            Delete key")
	fmt.Println("  stats                Show generation count and cache size")
	fmt.Println("  help                 Show this help")
	fmt.Println("  exit / quit / q      Exit")
}

func (r *REPL) cmdGet(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: get <key>")

		return
	}

	v, err := r.db.Get([]byte(args[0]))
	if err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	if v == nil {
		fmt.Println("(not found)")

		return
	}

	fmt.Println(string(v))
}

func (r *REPL) cmdPut(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: put <key> <value>")

		return
	}

	if err := r.db.Put([]byte(args[0]), []byte(args[1])); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK")
}

func (r *REPL) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: del <key>")

		return
	}

	if err := r.db.Delete([]byte(args[0])); err != nil {
		fmt.Printf("Error: %v\n", err)

		return
	}

	fmt.Println("OK")
}

func (r *REPL) cmdStats() {
	fmt.Printf("generations:    %d\n", r.db.GenerationCount())
	fmt.Printf("cached readers: %d\n", r.db.CacheLen())
}
