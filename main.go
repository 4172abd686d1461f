package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	configx "github.com/tanpawarit/ai-sales-assistant/pkg/config"
	_ "github.com/tanpawarit/ai-sales-assistant/pkg/logger/autoload"
)

const version = "0.3.0"

func main() {
	// Parses -env along with the global flags.
	_ = configx.EnvFile()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")

	command, commandArgs := args[0], args[1:]
	var err error
	switch command {
	case "serve":
		err = serveCommand(ctx, *appCfg)
	case "mcp":
		err = mcpCommand(ctx, *appCfg)
	case "ingest":
		err = ingestCommand(ctx, *appCfg, commandArgs)
	case "seed":
		err = seedCommand(ctx, *appCfg)
	case "negotiate":
		err = negotiateCommand(ctx, *appCfg, commandArgs)
	case "coach":
		err = coachCommand(ctx)
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		log.Error().Err(err).Str("command", command).Msg("command failed")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `ai-sales-assistant - customer interaction and negotiation assistant

Usage:
  ai-sales-assistant [-env FILE] <command> [flags]

Commands:
  serve                     Run the HTTP API
  mcp                       Run the MCP server on stdio
  ingest -file listings.csv Rebuild the listing vector index
  seed                      Load demo customers and products
  negotiate -name NAME      Negotiate interactively from stdin or an audio spool
  coach                     Coach the seller live on each captured utterance
  version                   Print the version
`)
}
