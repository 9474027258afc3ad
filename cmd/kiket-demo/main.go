// kiket-demo is a minimal order-guard extension showing the SDK wiring:
// registering versioned handlers, shared-secret verification, and the
// structured response helpers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kiket "github.com/kiket-dev/kiket-go-sdk"
	"github.com/kiket-dev/kiket-go-sdk/responses"
)

func main() {
	fs := flag.NewFlagSet("kiket-demo", flag.ExitOnError)
	addr := fs.String("addr", ":8000", "listen address")
	secret := fs.String("secret", os.Getenv("KIKET_WEBHOOK_SECRET"), "shared webhook secret")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	sdk, err := kiket.New(kiket.Options{
		ExtensionID:      "order-guard",
		ExtensionVersion: "0.1.0",
		WebhookSecret:    *secret,
		LogLevel:         *logLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialize SDK: %v\n", err)
		os.Exit(1)
	}

	err = sdk.RegisterAll(
		kiket.Webhook("issue.created", "1.0", handleIssueCreated, "issues.read"),
		kiket.Webhook("order.submitted", "1.0", handleOrderSubmitted, "orders.read"),
		kiket.Webhook("order.submitted", "2.0", handleOrderSubmittedV2, "orders.read", "orders.write"),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "register handlers: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := sdk.Run(ctx, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleIssueCreated(ctx context.Context, payload map[string]any, hc *kiket.HandlerContext) (any, error) {
	issue, _ := payload["issue"].(map[string]any)
	title, _ := issue["title"].(string)
	hc.Logger.Info("issue received", "title", title)
	return responses.Allow("", map[string]any{"triaged": true}, nil), nil
}

func handleOrderSubmitted(ctx context.Context, payload map[string]any, hc *kiket.HandlerContext) (any, error) {
	order, _ := payload["order"].(map[string]any)
	total, _ := order["total"].(float64)
	if total <= 0 {
		return responses.Deny("order total must be positive", nil), nil
	}
	return responses.Allow("order accepted", map[string]any{"total": total}, nil), nil
}

func handleOrderSubmittedV2(ctx context.Context, payload map[string]any, hc *kiket.HandlerContext) (any, error) {
	if err := hc.RequireScopes("orders.write"); err != nil {
		return nil, err
	}
	order, _ := payload["order"].(map[string]any)
	id, _ := order["id"].(string)
	return responses.Pending("order queued for review", map[string]any{"order_id": id}), nil
}
