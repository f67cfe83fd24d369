// Command spell resolves one quote from the command line and prints the
// result as JSON.
//
// Usage:
//
//	spell --quote="hello world"
//	spell --quote="hello world" --combinations
//
// --combinations only lists the candidate partitions and needs no
// catalog credentials.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heartmarshall/quotespell/internal/app"
	"github.com/heartmarshall/quotespell/internal/config"
	"github.com/heartmarshall/quotespell/internal/service/spell"
)

func main() {
	quote := flag.String("quote", "", "quote to spell")
	combinations := flag.Bool("combinations", false, "print partitions only")
	maxWords := flag.Int("max-words", 16, "word limit for --combinations")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	if *quote == "" {
		fmt.Fprintln(os.Stderr, `Usage: spell --quote="..." [--combinations]`)
		os.Exit(1)
	}

	if *combinations {
		if err := printCombinations(os.Stdout, *quote, *maxWords); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	components, err := app.Wire(ctx, cfg, logger)
	if err != nil {
		logger.Error("wire", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer components.Close()

	result, err := components.Spells.Spell(ctx, spell.SpellInput{Quote: *quote})
	if err != nil {
		logger.Error("spell failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := writeJSON(os.Stdout, result); err != nil {
		log.Fatal(err)
	}
	if !result.Found {
		os.Exit(2)
	}
}

func printCombinations(w io.Writer, quote string, maxWords int) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := spell.NewService(logger, nil, nil, nil, nil, spell.Options{MaxWords: maxWords})

	combos, err := svc.Combinations(quote)
	if err != nil {
		return err
	}
	return writeJSON(w, combos)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
