// Command annotext migrates annotated manuscript spreadsheets into the
// document database.
//
// Commands:
//
//	validate     parse every sheet of the index and report failures
//	migrate      commit the index to the database, stopping at the first failure
//	status       list migrated documents
//	db-migrate   apply the embedded schema migrations
//	convert      rewrite t/th transcriptions into the d/t convention
//
// Global flags:
//
//	--config       YAML config file (default: $CONFIG_PATH or ./config.yaml)
//	--workbooks    read sheets from .xlsx files in this directory
//	--index-file   read the index from this YAML manifest
//
// Exit codes: 0 = success, 1 = error or incomplete run.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := newCommandContext()
	cmd := newRootCommand(cmdCtx)
	err := cmd.ExecuteContext(ctx)
	cmdCtx.close()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
