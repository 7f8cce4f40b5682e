package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"domaauction/gateway/middleware"
)

const (
	defaultEndpoint = "http://127.0.0.1:8080"
	endpointEnv     = "AUCTIONCTL_ENDPOINT"
	callerEnv       = "AUCTIONCTL_CALLER"
	tokenEnv        = "AUCTIONCTL_TOKEN"
	secretEnv       = "AUCTION_JWT_SECRET"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, c *client, args []string) error
}

var commands = []command{
	{"info", "show module address and engine parameters", runInfo},
	{"lot", "create|show|price|activate|cancel|expire a lot", runLot},
	{"bond", "deposit|refund|show|balance soft-bid bonds", runBond},
	{"bid", "place|commit|complete a hard bid", runBid},
	{"domain", "mint|show|approve|approve-all domains", runDomain},
	{"account", "show an account balance", runAccount},
	{"loyalty", "list loyalty tokens held by an address", runLoyalty},
	{"watch", "stream committed events", runWatch},
	{"token", "sign a caller JWT", runToken},
}

func main() {
	global := flag.NewFlagSet("auctionctl", flag.ExitOnError)
	endpoint := global.String("endpoint", envOr(endpointEnv, defaultEndpoint), "auctiond base URL")
	caller := global.String("caller", os.Getenv(callerEnv), "caller address sent as the "+middleware.CallerHeader+" header")
	token := global.String("token", os.Getenv(tokenEnv), "bearer token; takes precedence over -caller")
	global.Usage = usage
	_ = global.Parse(os.Args[1:])

	args := global.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}
	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		c := newClient(*endpoint, *caller, *token)
		if err := cmd.run(context.Background(), c, args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	usage()
	os.Exit(1)
}

func usage() {
	fmt.Println("auctionctl [-endpoint URL] [-caller ADDR | -token JWT] <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, cmd := range commands {
		fmt.Printf("  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Println()
	fmt.Println("Amounts are given and shown in ether; addresses may be 0x hex or bech32.")
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var errUsage = errors.New("invalid arguments; run auctionctl with no arguments for help")

func subcommand(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errUsage
	}
	return args[0], args[1:], nil
}
