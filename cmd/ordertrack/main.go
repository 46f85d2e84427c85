// Command ordertrack follows an order until it is delivered or cancelled,
// optionally uploading a payment screenshot first.
//
//	ordertrack [-api URL] [-interval 5s] [-proof receipt.png] ORDER
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/storefront/internal/client"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

func main() {
	apiURL := flag.String("api", envOr("STOREFRONT_API", "http://localhost:8080"), "storefront base URL")
	interval := flag.Duration("interval", client.DefaultPollInterval, "poll interval")
	proof := flag.String("proof", "", "payment screenshot to upload before tracking")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	utils.ConfigureLogger(*logLevel, "console")

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ordertrack [flags] ORDER")
		flag.PrintDefaults()
		os.Exit(2)
	}
	ref := flag.Arg(0)

	api, err := client.New(client.Options{BaseURL: *apiURL, Token: os.Getenv("STOREFRONT_TOKEN")})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid api url")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *proof != "" {
		if err := attachProof(ctx, api, ref, *proof); err != nil {
			log.Fatal().Err(err).Str("file", *proof).Msg("failed to attach payment proof")
		}
	}

	for change := range api.WatchOrder(ctx, ref, *interval) {
		if change.Err != nil {
			if client.IsNotFound(change.Err) {
				log.Fatal().Str("order", ref).Msg("order not found")
			}
			log.Warn().Err(change.Err).Msg("poll failed, retrying")
			continue
		}
		printStatus(change.Order)
	}
}

func attachProof(ctx context.Context, api *client.Client, ref, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := api.UploadScreenshot(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	order, err := api.AttachScreenshot(ctx, ref, url)
	if err != nil {
		return err
	}
	log.Info().Str("order", order.OrderNumber).Str("proof", url).Msg("payment proof attached")
	return nil
}

func printStatus(order models.Order) {
	step := order.Status.ProgressIndex()
	progress := "off track"
	if step >= 0 {
		progress = fmt.Sprintf("step %d/%d", step+1, len(models.OrderStatuses)-1)
	}
	fmt.Printf("%s  %-16s %-18s %s\n",
		time.Now().Format("15:04:05"), order.OrderNumber, order.Status, progress)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
