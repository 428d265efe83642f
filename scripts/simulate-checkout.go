package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/payment"
)

var (
	baseURL       = flag.String("base-url", "http://localhost:8086", "Checkout service base URL")
	eventID       = flag.String("event", "", "Event ID (required)")
	token         = flag.String("token", "", "Buyer bearer token (required)")
	buyers        = flag.Int("buyers", 100, "Number of concurrent buyers")
	quantity      = flag.Int("quantity", 2, "Tickets per order")
	webhookSecret = flag.String("webhook-secret", "", "If set, confirm each reservation via a signed webhook")
)

type orderResp struct {
	Data struct {
		Order struct {
			ID               string `json:"id"`
			PaymentReference string `json:"payment_reference"`
		} `json:"order"`
	} `json:"data"`
}

// Drives concurrent reservations against one event so overselling
// shows up immediately: successes*quantity must never exceed the
// event's capacity.
func main() {
	flag.Parse()

	if *eventID == "" || *token == "" {
		fmt.Println("Error: --event and --token flags are required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cli := &http.Client{Timeout: 10 * time.Second}

	var reserved, soldOut, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(32)

	start := time.Now()
	for i := 0; i < *buyers; i++ {
		g.Go(func() error {
			body, _ := json.Marshal(map[string]any{
				"event_id": *eventID,
				"quantity": *quantity,
			})

			req, err := http.NewRequestWithContext(gctx, http.MethodPost, *baseURL+"/api/v1/orders", bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+*token)

			resp, err := cli.Do(req)
			if err != nil {
				failed.Add(1)
				return nil
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusCreated:
				reserved.Add(1)
				if *webhookSecret != "" {
					var or orderResp
					if err := json.NewDecoder(resp.Body).Decode(&or); err == nil {
						confirm(gctx, cli, or.Data.Order.PaymentReference)
					}
				}
			case http.StatusConflict:
				soldOut.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Println("Error:", err)
	}

	fmt.Printf("Done in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("  reserved:  %d (%d tickets)\n", reserved.Load(), reserved.Load()*int64(*quantity))
	fmt.Printf("  sold out:  %d\n", soldOut.Load())
	fmt.Printf("  failed:    %d\n", failed.Load())
}

func confirm(ctx context.Context, cli *http.Client, ref string) {
	event := map[string]any{
		"id":      fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		"type":    "payment_intent.succeeded",
		"created": time.Now().Unix(),
		"data": map[string]any{
			"payment_reference": ref,
		},
	}
	body, _ := json.Marshal(event)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *baseURL+"/api/v1/webhooks/payment", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(payment.SignatureHeader, payment.Sign(body, *webhookSecret, time.Now()))

	resp, err := cli.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
