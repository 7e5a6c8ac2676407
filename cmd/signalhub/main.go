// Signalhub — WebRTC signaling hub.
//
// It multiplexes any number of senders and receivers over WebSocket
// connections, matching them into channels by a caller-chosen id and
// forwarding SDP offers/answers, trickle ICE candidates, and opaque
// binary payloads between the two sides of each channel. It never
// terminates a PeerConnection itself — once signaling completes, peers
// transport media directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/pterm/pterm"

	"github.com/kelvinyu/signalhub/internal/config"
	"github.com/kelvinyu/signalhub/internal/hub"
	"github.com/kelvinyu/signalhub/internal/util"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	addrFlag := flag.String("addr", "", "Listen address, e.g. :9000 (default: $SIGNALHUB_ADDR or :9000)")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	pterm.Info.Println(fmt.Sprintf("Signalhub — v%s", version))
	pterm.Println()

	var cliArgs []string
	if *addrFlag != "" {
		cliArgs = []string{*addrFlag}
	}
	cfg, err := config.Load(cliArgs)
	if err != nil {
		util.LogError("invalid configuration: %v", err)
		os.Exit(1)
	}

	h := hub.New()
	util.StartStatsReporter(ctx, h)

	if err := h.ListenAndServe(ctx, cfg.Addr); err != nil {
		util.LogError("failed to start signaling hub: %v", err)
		os.Exit(1)
	}

	util.LogInfo("signaling hub shut down")
}
