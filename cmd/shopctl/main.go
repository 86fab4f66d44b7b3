// Package main is the entry point for the shopctl CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/open-cli-collective/shopify-cli/internal/cmd/bulkcmd"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/completion"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/configcmd"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/graphqlcmd"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/initcmd"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/limitscmd"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/root"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/stagedcmd"
	"github.com/open-cli-collective/shopify-cli/internal/cmd/versionscmd"
	clierrors "github.com/open-cli-collective/shopify-cli/internal/errors"
	"github.com/open-cli-collective/shopify-cli/internal/view"
)

func main() {
	// A .env file in the working directory may supply SHOPCTL_* variables.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()

	if err != nil {
		report(err)
	}
	os.Exit(clierrors.ExitCode(err))
}

func run(ctx context.Context) error {
	rootCmd, opts := root.NewCmd()

	root.RegisterCommands(rootCmd, opts,
		initcmd.Register,
		configcmd.Register,
		bulkcmd.Register,
		stagedcmd.Register,
		graphqlcmd.Register,
		limitscmd.Register,
		versionscmd.Register,
		completion.Register,
	)

	return rootCmd.ExecuteContext(ctx)
}

func report(err error) {
	msg, hint := clierrors.Describe(err)
	v := view.New(view.FormatTable, os.Getenv("NO_COLOR") != "")
	v.Error("%s", msg)
	if hint != "" {
		fmt.Fprintln(os.Stderr, "  "+hint)
	}
}
