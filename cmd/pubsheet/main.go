// Command pubsheet runs the sheet tools from the command line.
//
//	pubsheet list --pub-id 2PACX-... --limit 10
//	pubsheet query --url https://docs.google.com/... --filters '[{"status":"active"}]' --sort age:desc
//	pubsheet export --pub-id 2PACX-... --select name,email --format csv
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; variables already set win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd(nil).ExecuteContext(ctx)
	stop()

	if err != nil {
		var te *toolError
		if !errors.As(err, &te) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
