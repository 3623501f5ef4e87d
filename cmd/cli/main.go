// Command lp is a visitor-session simulator: it drives the tracking agent
// against a LinkPulse server, persisting agent state under the user config
// directory the way a browser would persist localStorage.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/linkpulse/linkpulse/internal/agent"
	"github.com/linkpulse/linkpulse/internal/convert"
	"github.com/linkpulse/linkpulse/internal/model"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const defaultUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "linkpulse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "linkpulse")
}

func usage() {
	fmt.Fprintf(os.Stderr, `lp CLI
Usage:
  lp -addr URL -campaign ID [-ua STRING] <cmd> [args]

Commands:
  version
  visit    -url <landing url> [-referrer <url>]   (resolve attribution, report click)
  convert  -amount <n> [-commission <n>]          (report a conversion)
  status                                          (show current attribution)
  activity                                        (show suspicious-activity log)
  reset                                           (forget stored agent state)
`)
	os.Exit(2)
}

// main dispatches subcommands against a file-backed agent session.
func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	campaign := flag.String("campaign", "", "campaign id (required)")
	ua := flag.String("ua", defaultUA, "user agent presented to the server")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	if cmd == "version" {
		fmt.Printf("lp %s (%s)\n", version, buildDate)
		return
	}
	if *campaign == "" {
		fmt.Fprintln(os.Stderr, "missing -campaign")
		usage()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := newAgent(*campaign, *ua)
	if err != nil {
		fatal(err)
	}

	switch cmd {

	case "visit":
		fs := flag.NewFlagSet("visit", flag.ExitOnError)
		pageURL := fs.String("url", "", "landing page URL")
		referrer := fs.String("referrer", "", "referrer URL")
		_ = fs.Parse(flag.Args()[1:])
		if *pageURL == "" {
			fatal(fmt.Errorf("missing -url"))
		}

		rec, err := a.ResolveAttribution(*pageURL)
		if err != nil {
			fatal(err)
		}
		if rec == nil {
			fmt.Println("no attribution: tracking inert for this visitor")
			return
		}
		printJSON(rec)

		resp, err := postTrack(ctx, *addr, convert.TrackRequest{
			AffiliateID:      rec.AffiliateID,
			CampaignID:       rec.CampaignID,
			Type:             string(model.EventClick),
			Referrer:         *referrer,
			Timestamp:        time.Now().UnixMilli(),
			ClientValidation: true,
		}, *ua)
		if err != nil {
			fatal(err)
		}
		printJSON(resp)

	case "convert":
		fs := flag.NewFlagSet("convert", flag.ExitOnError)
		amount := fs.Float64("amount", 0, "sale amount")
		commission := fs.Float64("commission", 0, "custom commission override")
		_ = fs.Parse(flag.Args()[1:])

		var custom *float64
		if *commission > 0 {
			custom = commission
		}
		if !a.TrackConversion(*amount, custom) {
			fmt.Println("conversion not eligible (no attribution, duplicate, or rejected)")
			os.Exit(1)
		}
		attempt, ok := a.LastAttempt()
		if !ok {
			fatal(fmt.Errorf("no pending attempt after eligible conversion"))
		}

		resp, err := postTrack(ctx, *addr, convert.TrackRequest{
			AffiliateID:      attempt.AffiliateID,
			CampaignID:       attempt.CampaignID,
			Type:             string(model.EventConversion),
			Amount:           &attempt.Amount,
			Timestamp:        attempt.Timestamp.UnixMilli(),
			Signature:        attempt.Signature,
			ClientValidation: true,
		}, *ua)
		if err != nil {
			fatal(err)
		}
		printJSON(resp)

	case "status":
		rec, err := a.ResolveAttribution("")
		if err != nil {
			fatal(err)
		}
		if rec == nil {
			fmt.Println("no active attribution")
			return
		}
		printJSON(rec)

	case "activity":
		entries := a.SuspiciousActivity()
		if len(entries) == 0 {
			fmt.Println("no suspicious activity recorded")
			return
		}
		printJSON(entries)

	case "reset":
		if err := os.RemoveAll(stateDir(*campaign)); err != nil {
			fatal(err)
		}
		fmt.Println("agent state cleared")

	default:
		usage()
	}
}

func stateDir(campaign string) string {
	return filepath.Join(cfgDir(), "state", campaign)
}

// newAgent builds a file-backed agent whose fingerprint is derived from the
// local environment, mirroring the browser signals.
func newAgent(campaign, ua string) (*agent.Agent, error) {
	storage, err := agent.NewFileStorage(stateDir(campaign))
	if err != nil {
		return nil, err
	}
	tz, offsetSec := time.Now().Zone()
	return agent.New(agent.Config{
		CampaignID: campaign,
		Fingerprint: agent.Fingerprint{
			UserAgent:        ua,
			ScreenResolution: "1920x1080",
			Timezone:         tz,
			Language:         os.Getenv("LANG"),
			TimezoneOffset:   offsetSec / 60,
		},
		Storage: storage,
		Logger:  zap.NewNop(),
	})
}

func postTrack(ctx context.Context, baseURL string, req convert.TrackRequest, ua string) (*convert.TrackResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/v1/track", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", ua)

	httpResp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server answered %s", httpResp.Status)
	}
	var resp convert.TrackResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
