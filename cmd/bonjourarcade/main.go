// Command bonjourarcade drives the weekly game-of-the-week flow: pick
// the scheduled game, render the French announcement and send it to the
// mailing list and chat channels.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"bonjourarcade/internal/announce"
	"bonjourarcade/internal/catalog"
	"bonjourarcade/internal/config"
	"bonjourarcade/internal/dispatch"
	"bonjourarcade/internal/message"
	"bonjourarcade/internal/pipeline"
	"bonjourarcade/internal/seed"
	"bonjourarcade/internal/serve"
	"bonjourarcade/pkg/logx"
)

const usage = `Usage: bonjourarcade <command> [flags]

Commands:
  announce   send the weekly announcement to all channels
  game       print the current week's game id
  status     print a game's visibility status (SHOW_GAME/HIDE_GAME/NOT_IN_PREDICTIONS)
  plinko     print the plinko draw URL for a week
  describe   generate the AI announcement text for the weekly game
  serve      run the announcement pipeline on a schedule

Run 'bonjourarcade <command> -h' for command flags.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "announce":
		return cmdAnnounce(ctx, rest)
	case "game":
		return cmdGame(ctx, rest)
	case "status":
		return cmdStatus(ctx, rest)
	case "plinko":
		return cmdPlinko(ctx, rest)
	case "describe":
		return cmdDescribe(ctx, rest)
	case "serve":
		return cmdServe(ctx, rest)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
}

// setup loads the config and builds the logger shared by every command.
func setup(cfgPath string) (*pipeline.Pipeline, func() error, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	log, closeLog := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	return pipeline.New(cfg, log), closeLog, nil
}

func cmdAnnounce(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("announce", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file (json or yaml)")
	dryRun := fs.Bool("dry-run", false, "log what would be sent without calling any API")
	mailAPI := fs.String("mail-api-url", "", "override the mail provider API base URL")
	mailOnly := fs.Bool("mail-only", false, "send only the email broadcast")
	webhookOnly := fs.Bool("webhook-only", false, "send only the chat channels")
	webhookMap := fs.String("webhook-map", "", "override the channel map file path")
	webhookLabel := fs.String("webhook-label", "", "send only the channel with this label")
	customMsg := fs.String("custom-message", "", "intro message (omit to compose in $EDITOR)")
	weekSeed := fs.String("week-seed", "", "week seed YYYYWW (default: current week)")
	noIntro := fs.Bool("no-message", false, "skip the custom intro entirely")
	_ = fs.Parse(args)

	if *mailOnly && *webhookOnly {
		fmt.Fprintln(os.Stderr, "-mail-only and -webhook-only are mutually exclusive")
		return 2
	}

	p, closeLog, err := setup(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	defer closeLog()

	var intro message.Provider
	switch {
	case *noIntro:
		intro = nil
	case *customMsg != "":
		intro = message.Static(*customMsg)
	default:
		sd, err := p.WeekSeed(*weekSeed)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			return 1
		}
		title := ""
		if sel, err := p.Resolve(sd); err == nil {
			title = sel.Game.Title
		}
		intro = &message.Editor{Log: p.Log, GameTitle: title}
	}

	rep, err := p.Announce(ctx, pipeline.AnnounceOptions{
		WeekSeed:   *weekSeed,
		DryRun:     *dryRun,
		MailAPIURL: *mailAPI,
		WebhookMap: *webhookMap,
		Filter: dispatch.Filter{
			Label:       *webhookLabel,
			MailOnly:    *mailOnly,
			WebhookOnly: *webhookOnly,
		},
		Intro: intro,
	})
	if err != nil {
		if errors.Is(err, message.ErrAborted) {
			p.Log.Info("announcement cancelled")
			return 0
		}
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	if rep.EmailFailed() {
		return 1
	}
	return 0
}

func cmdGame(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("game", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file (json or yaml)")
	weekSeed := fs.String("week-seed", "", "week seed YYYYWW (default: current week)")
	_ = fs.Parse(args)

	p, closeLog, err := setup(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	defer closeLog()

	sd, err := p.WeekSeed(*weekSeed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	sel, err := p.Resolve(sd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	fmt.Println(sel.Game.ID)
	return 0
}

func cmdStatus(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file (json or yaml)")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: bonjourarcade status <game title>")
		return 2
	}

	p, closeLog, err := setup(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	defer closeLog()

	status, err := p.TitleStatus(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	fmt.Println(status)
	return 0
}

func cmdPlinko(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("plinko", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file (json or yaml)")
	week := fs.Int("week", 0, "week number 1-53 (default: current)")
	year := fs.Int("year", 0, "year (default: current)")
	baseURL := fs.String("base-url", "", "override the plinko base URL")
	noOpen := fs.Bool("no-open", false, "do not open the URL in a browser")
	_ = fs.Parse(args)

	p, closeLog, err := setup(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	defer closeLog()

	sd := seed.Current(p.Now())
	if *year != 0 {
		sd.Year = *year
	}
	if *week != 0 {
		sd.Week = *week
	}
	if sd.Week < 1 || sd.Week > 53 {
		fmt.Fprintln(os.Stderr, "fatal: week must be between 1 and 53")
		return 1
	}

	base := *baseURL
	if base == "" {
		base = p.Cfg.Site.PlinkoBaseURL
	}
	url := fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), sd)
	fmt.Printf("Seed : %s\nURL  : %s\n", sd, url)

	if !*noOpen {
		if err := openBrowser(url); err != nil {
			p.Log.Warn("could not open browser", logx.Err(err))
		}
	}
	return 0
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

func cmdDescribe(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file (json or yaml)")
	weekSeed := fs.String("week-seed", "", "week seed YYYYWW (default: current week)")
	aiService := fs.String("ai-service", "openai", "ai backend: openai or claude")
	updateMeta := fs.Bool("update-metadata", false, "write the announcement into metadata.yaml")
	dryRun := fs.Bool("dry-run", false, "print the prompt without calling the API")
	_ = fs.Parse(args)

	p, closeLog, err := setup(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	defer closeLog()

	sd, err := p.WeekSeed(*weekSeed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	sel, err := p.Resolve(sd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}

	if *dryRun {
		fmt.Println("=== DRY RUN ===")
		fmt.Println(announce.Prompt(sel.Game))
		return 0
	}

	// An existing announcement is only replaced on explicit confirmation.
	if strings.TrimSpace(sel.Game.Announcement) != "" {
		fmt.Printf("Annonce existante :\n%s\n\nRemplacer ? [o/N] ", sel.Game.Announcement)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "o" && answer != "oui" && answer != "y" && answer != "yes" {
			p.Log.Info("keeping existing announcement")
			return 0
		}
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	apiKey := secrets.OpenAIAPIKey
	if strings.EqualFold(*aiService, "claude") || strings.EqualFold(*aiService, "anthropic") {
		apiKey = secrets.AnthropicAPIKey
	}
	if apiKey == "" {
		fmt.Fprintf(os.Stderr, "fatal: no API key in the environment for service %q\n", *aiService)
		return 1
	}

	gen, err := announce.NewGenerator(*aiService, apiKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	text, err := announce.Generate(ctx, gen, sel.Game, p.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	fmt.Println(text)

	if *updateMeta {
		path := catalog.MetadataPath(p.Cfg.Paths.GamesDir, sel.Game.ID)
		if err := announce.UpdateMetadata(path, text); err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			return 1
		}
		p.Log.Info("metadata updated", logx.String("path", path))
	}
	return 0
}

func cmdServe(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "path to config file (json or yaml)")
	schedule := fs.String("schedule", "", "cron expression (default from config)")
	_ = fs.Parse(args)

	p, closeLog, err := setup(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	defer closeLog()

	sched := *schedule
	if sched == "" {
		sched = p.Cfg.Serve.Schedule
	}

	srv := serve.New(serve.Options{
		Log:             p.Log,
		Schedule:        sched,
		PredictionsPath: p.Cfg.Paths.Predictions,
		Run: func(ctx context.Context) error {
			// Unattended: no editor, no intro.
			rep, err := p.Announce(ctx, pipeline.AnnounceOptions{})
			if err != nil {
				return err
			}
			if rep.EmailFailed() {
				return errors.New("email delivery failed")
			}
			return nil
		},
		OnPredictionsChange: func(ctx context.Context) {
			sd, err := p.WeekSeed("")
			if err != nil {
				return
			}
			sel, err := p.Resolve(sd)
			if err != nil {
				p.Log.Warn("current week no longer resolves", logx.Err(err))
				return
			}
			p.Log.Info("upcoming selection",
				logx.String("seed", sel.Seed.String()),
				logx.String("game_id", sel.Game.ID))
		},
	})

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		return 1
	}
	return 0
}
