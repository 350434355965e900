// Command historyctl inspects, exports and clears the stored history.
//
// A running api process keeps its own copy of the history and writes it back
// on the next transform, so -clear only sticks while the service is stopped.
// Against a live service use DELETE /v1/history instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"artshift/internal/domain"
	"artshift/internal/history"
	"artshift/internal/infra"
	"artshift/internal/storage"
)

func main() {
	var (
		listFlag   bool
		exportFlag string
		clearFlag  bool
	)

	flag.BoolVar(&listFlag, "list", false, "print the stored history, newest first")
	flag.StringVar(&exportFlag, "export", "", "write every result image to the given zip file")
	flag.BoolVar(&clearFlag, "clear", false, "remove every history entry (stop the api first, or use DELETE /v1/history)")
	flag.Parse()

	if !listFlag && exportFlag == "" && !clearFlag {
		exitWithError(errors.New("one of -list, -export or -clear is required"))
	}

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(fmt.Errorf("invalid configuration: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := infra.NewLogger("cli").With().Str("cmd", "historyctl").Logger()
	kv, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		exitWithError(fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err))
	}
	defer closeStore()

	store := history.NewStore(kv, logger)
	if err := store.Load(ctx); err != nil {
		exitWithError(err)
	}
	items := store.List()

	if listFlag {
		if len(items) == 0 {
			fmt.Println("history is empty")
		}
		for i, item := range items {
			fmt.Printf("%2d  %s  %-16s  %s\n", i+1, time.UnixMilli(item.Timestamp).Format(time.RFC3339), item.StyleLabel, item.ID)
		}
	}

	if exportFlag != "" {
		archive, n, err := history.Archive(items, func(item domain.HistoryItem, err error) {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", item.ID, err)
		})
		if err != nil {
			exitWithError(err)
		}
		if err := os.WriteFile(exportFlag, archive, 0o644); err != nil {
			exitWithError(fmt.Errorf("failed to write archive: %w", err))
		}
		fmt.Printf("exported %d images to %s\n", n, exportFlag)
	}

	if clearFlag {
		if err := store.Clear(ctx); err != nil {
			exitWithError(err)
		}
		fmt.Printf("cleared %d history entries\n", len(items))
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
