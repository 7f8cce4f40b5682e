package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"domaauction/cmd/internal/passphrase"
	"domaauction/core/types"
	"domaauction/gateway/middleware"
)

// amountFields are response keys holding wei amounts that are shown in ether.
var amountFields = map[string]bool{
	"startPrice": true, "floorPrice": true, "clearingPrice": true, "price": true,
	"totalEscrowed": true, "forfeited": true, "amount": true, "depositedAtPrice": true,
	"deposited": true, "refunded": true, "applied": true, "bond": true, "payment": true,
	"fee": true, "proceeds": true, "residual": true, "balance": true,
}

// toEther rewrites wei amounts in a decoded response for display.
func toEther(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for key, field := range val {
			if s, ok := field.(string); ok && amountFields[key] {
				if wei, ok := new(big.Int).SetString(s, 10); ok {
					val[key] = types.FormatEther(wei)
					continue
				}
			}
			val[key] = toEther(field)
		}
		return val
	case []interface{}:
		for i := range val {
			val[i] = toEther(val[i])
		}
		return val
	default:
		return v
	}
}

func call(ctx context.Context, c *client, method, path string, body interface{}) error {
	var out interface{}
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return err
	}
	return printJSON(toEther(out))
}

func weiString(field, ether string) (string, error) {
	wei, err := types.ParseEther(ether)
	if err != nil {
		return "", fmt.Errorf("%s: %w", field, err)
	}
	return wei.String(), nil
}

func canonicalAddress(raw string) (string, error) {
	addr, err := types.ParseAddress(raw)
	if err != nil {
		return "", err
	}
	return types.HexAddress(addr), nil
}

func lotPath(raw string, suffix string) (string, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return "", fmt.Errorf("invalid lot id %q", raw)
	}
	return fmt.Sprintf("/v1/lots/%d%s", id, suffix), nil
}

func runInfo(ctx context.Context, c *client, _ []string) error {
	return call(ctx, c, http.MethodGet, "/v1/info", nil)
}

func runLot(ctx context.Context, c *client, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	if sub == "create" {
		fs := flag.NewFlagSet("lot create", flag.ContinueOnError)
		assets := fs.String("assets", "", "comma separated domain token ids")
		start := fs.String("start", "", "start price in ether")
		floor := fs.String("floor", "", "floor price in ether")
		startTime := fs.Int64("start-time", 0, "unix start time; 0 starts at activation")
		duration := fs.Duration("duration", 24*time.Hour, "decay duration")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		body := map[string]interface{}{"startTime": *startTime, "duration": int64(duration.Seconds())}
		var ids []string
		for _, id := range strings.Split(*assets, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		body["assets"] = ids
		if body["startPrice"], err = weiString("start", *start); err != nil {
			return err
		}
		if body["floorPrice"], err = weiString("floor", *floor); err != nil {
			return err
		}
		return call(ctx, c, http.MethodPost, "/v1/lots", body)
	}
	if len(rest) != 1 {
		return errUsage
	}
	switch sub {
	case "show", "price":
		suffix := ""
		if sub == "price" {
			suffix = "/price"
		}
		path, err := lotPath(rest[0], suffix)
		if err != nil {
			return err
		}
		return call(ctx, c, http.MethodGet, path, nil)
	case "activate", "cancel", "expire":
		path, err := lotPath(rest[0], "/"+sub)
		if err != nil {
			return err
		}
		return call(ctx, c, http.MethodPost, path, nil)
	default:
		return errUsage
	}
}

func runBond(ctx context.Context, c *client, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("bond "+sub, flag.ContinueOnError)
	lot := fs.String("lot", "", "lot id")
	amount := fs.String("amount", "", "bond amount in ether")
	bidder := fs.String("bidder", "", "bidder address")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	switch sub {
	case "deposit":
		path, err := lotPath(*lot, "/bonds")
		if err != nil {
			return err
		}
		wei, err := weiString("amount", *amount)
		if err != nil {
			return err
		}
		return call(ctx, c, http.MethodPost, path, map[string]string{"amount": wei})
	case "refund":
		path, err := lotPath(*lot, "/bonds/refund")
		if err != nil {
			return err
		}
		return call(ctx, c, http.MethodPost, path, nil)
	case "show":
		addr, err := canonicalAddress(*bidder)
		if err != nil {
			return err
		}
		path, err := lotPath(*lot, "/bonds/"+addr)
		if err != nil {
			return err
		}
		return call(ctx, c, http.MethodGet, path, nil)
	case "balance":
		target := *bidder
		if target == "" && fs.NArg() == 1 {
			target = fs.Arg(0)
		}
		addr, err := canonicalAddress(target)
		if err != nil {
			return err
		}
		return call(ctx, c, http.MethodGet, "/v1/bonds/"+addr, nil)
	default:
		return errUsage
	}
}

func runBid(ctx context.Context, c *client, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("bid "+sub, flag.ContinueOnError)
	lot := fs.String("lot", "", "lot id")
	payment := fs.String("payment", "", "payment in ether")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	suffix := map[string]string{"place": "/bids", "commit": "/commitments", "complete": "/commitments/complete"}[sub]
	if suffix == "" {
		return errUsage
	}
	path, err := lotPath(*lot, suffix)
	if err != nil {
		return err
	}
	if sub == "commit" {
		return call(ctx, c, http.MethodPost, path, nil)
	}
	wei, err := weiString("payment", *payment)
	if err != nil {
		return err
	}
	return call(ctx, c, http.MethodPost, path, map[string]string{"payment": wei})
}

func runDomain(ctx context.Context, c *client, args []string) error {
	sub, rest, err := subcommand(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("domain "+sub, flag.ContinueOnError)
	token := fs.String("token", "", "domain token id")
	name := fs.String("name", "", "domain name")
	owner := fs.String("owner", "", "owner address (mint)")
	operator := fs.String("operator", "", "approved address; defaults to the auction module")
	revoke := fs.Bool("revoke", false, "revoke an operator approval (approve-all)")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	optionalAddress := func(raw string) (string, error) {
		if strings.TrimSpace(raw) == "" {
			return "", nil
		}
		return canonicalAddress(raw)
	}
	switch sub {
	case "mint":
		ownerAddr, err := optionalAddress(*owner)
		if err != nil {
			return err
		}
		return call(ctx, c, http.MethodPost, "/v1/domains", map[string]string{"tokenId": *token, "name": *name, "owner": ownerAddr})
	case "show":
		if *name != "" {
			return call(ctx, c, http.MethodGet, "/v1/domains?name="+url.QueryEscape(*name), nil)
		}
		return call(ctx, c, http.MethodGet, "/v1/domains/"+url.PathEscape(*token), nil)
	case "approve":
		spender, err := optionalAddress(*operator)
		if err != nil {
			return err
		}
		return call(ctx, c, http.MethodPost, "/v1/domains/"+url.PathEscape(*token)+"/approve", map[string]string{"spender": spender})
	case "approve-all":
		op, err := optionalAddress(*operator)
		if err != nil {
			return err
		}
		return call(ctx, c, http.MethodPost, "/v1/domains/approve-all", map[string]interface{}{"operator": op, "approved": !*revoke})
	default:
		return errUsage
	}
}

func runAccount(ctx context.Context, c *client, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	addr, err := canonicalAddress(args[0])
	if err != nil {
		return err
	}
	return call(ctx, c, http.MethodGet, "/v1/accounts/"+addr, nil)
}

func runLoyalty(ctx context.Context, c *client, args []string) error {
	if len(args) == 0 {
		return call(ctx, c, http.MethodGet, "/v1/loyalty/", nil)
	}
	addr, err := canonicalAddress(args[0])
	if err != nil {
		return err
	}
	return call(ctx, c, http.MethodGet, "/v1/loyalty/"+addr, nil)
}

func runToken(_ context.Context, _ *client, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "", "caller address to embed as sub")
	issuer := fs.String("issuer", "domaauction", "token issuer")
	audience := fs.String("audience", "", "token audience")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	envVar := fs.String("secret-env", secretEnv, "environment variable holding the HMAC secret")
	if err := fs.Parse(args); err != nil {
		return err
	}
	addr, err := canonicalAddress(*subject)
	if err != nil {
		return fmt.Errorf("subject: %w", err)
	}
	secret, err := passphrase.NewSource(*envVar, "JWT signing secret").Get()
	if err != nil {
		return err
	}
	signed, err := middleware.SignToken([]byte(secret), addr, *issuer, *audience, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(signed)
	return nil
}
