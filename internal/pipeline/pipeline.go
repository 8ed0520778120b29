// Package pipeline ties the weekly flow together: seed, prediction,
// catalog resolution, content rendering and channel dispatch. The CLI
// subcommands and the serve scheduler both run through it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bonjourarcade/internal/catalog"
	"bonjourarcade/internal/compose"
	"bonjourarcade/internal/config"
	"bonjourarcade/internal/dispatch"
	"bonjourarcade/internal/journal"
	"bonjourarcade/internal/message"
	"bonjourarcade/internal/predict"
	"bonjourarcade/internal/seed"
	"bonjourarcade/pkg/logx"
)

// ErrNoPrediction means the prediction file has no entry for the week.
var ErrNoPrediction = errors.New("no prediction for seed")

type Pipeline struct {
	Cfg *config.Config
	Log logx.Logger

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func New(cfg *config.Config, log logx.Logger) *Pipeline {
	return &Pipeline{Cfg: cfg, Log: log, Now: time.Now}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Selection is the fully resolved game of the week.
type Selection struct {
	Seed seed.Seed
	Game catalog.GameRecord
}

// WeekSeed resolves the seed: an explicit override or the current week.
func (p *Pipeline) WeekSeed(override string) (seed.Seed, error) {
	if override != "" {
		return seed.Parse(override)
	}
	return seed.Current(p.now()), nil
}

// Resolve maps a seed to its scheduled game record. The prediction can
// name the game id directly; otherwise the title is matched against the
// gamelist. Full metadata is loaded from the games directory when
// available, falling back to the bare gamelist record.
func (p *Pipeline) Resolve(sd seed.Seed) (Selection, error) {
	store, err := predict.Load(p.Cfg.Paths.Predictions, p.Log)
	if err != nil {
		return Selection{}, err
	}
	pred, ok, err := store.Lookup(sd)
	if err != nil {
		return Selection{}, fmt.Errorf("seed %s: %w", sd, err)
	}
	if !ok {
		return Selection{}, fmt.Errorf("%w: %s", ErrNoPrediction, sd)
	}

	id := pred.GameID
	if id == "" {
		cat, err := catalog.LoadGamelist(p.Cfg.Paths.Gamelist)
		if err != nil {
			return Selection{}, err
		}
		g, err := cat.Resolve(pred.Title, p.Log)
		if err != nil {
			return Selection{}, fmt.Errorf("resolve %q: %w", pred.Title, err)
		}
		id = g.ID
	}

	g, err := catalog.LoadGame(p.Cfg.Paths.GamesDir, id)
	if err != nil {
		if !os.IsNotExist(err) {
			return Selection{}, err
		}
		p.Log.Warn("no metadata file, using gamelist record", logx.String("game_id", id))
		g = catalog.GameRecord{ID: id, Title: pred.Title}
	}
	p.Log.Info("game of the week resolved",
		logx.String("seed", sd.String()),
		logx.String("game_id", g.ID),
		logx.String("title", g.Title))
	return Selection{Seed: sd, Game: g}, nil
}

// AnnounceOptions parameterizes one announcement run.
type AnnounceOptions struct {
	WeekSeed   string
	DryRun     bool
	MailAPIURL string
	WebhookMap string
	Filter     dispatch.Filter

	// Intro supplies the optional custom intro; nil means none.
	Intro message.Provider
}

// Announce runs the complete weekly flow. A message.ErrAborted from the
// intro provider propagates unchanged so callers can exit gracefully.
func (p *Pipeline) Announce(ctx context.Context, opts AnnounceOptions) (dispatch.Report, error) {
	sd, err := p.WeekSeed(opts.WeekSeed)
	if err != nil {
		return dispatch.Report{}, err
	}
	sel, err := p.Resolve(sd)
	if err != nil {
		return dispatch.Report{}, err
	}

	var intro string
	if opts.Intro != nil {
		intro, err = opts.Intro.Message(ctx)
		if err != nil {
			return dispatch.Report{}, err
		}
	}

	links := compose.GameLinks(
		p.Cfg.Site.BaseURL,
		p.Cfg.Site.PlayBaseURL,
		p.Cfg.Site.LeaderboardURL,
		p.Cfg.Site.PlinkoBaseURL,
		sel.Game.ID, sel.Seed,
	)
	content := compose.Render(sel.Game, compose.Options{Links: links, CustomIntro: intro})

	mapPath := opts.WebhookMap
	if mapPath == "" {
		mapPath = p.Cfg.Paths.WebhookMap
	}
	channels, err := dispatch.LoadChannelMap(mapPath, p.Log)
	if err != nil {
		return dispatch.Report{}, err
	}

	mailAPI := opts.MailAPIURL
	if mailAPI == "" {
		mailAPI = p.Cfg.Mail.APIURL
	}

	jrnl, err := journal.Open(journal.Config(p.Cfg.Journal), p.Log)
	if err != nil {
		return dispatch.Report{}, err
	}
	if jrnl != nil {
		defer func() {
			if err := jrnl.Close(); err != nil {
				p.Log.Warn("journal close failed", logx.Err(err))
			}
		}()
	}

	d := dispatch.New(dispatch.Options{
		Log:        p.Log,
		DryRun:     opts.DryRun,
		MailAPIURL: mailAPI,
		Journal:    jrnl,
		Now:        p.Now,
	})
	rep := d.Send(ctx, content, channels, opts.Filter, dispatch.Meta{
		Seed:   sel.Seed.String(),
		GameID: sel.Game.ID,
	})

	p.Log.Info("dispatch finished",
		logx.Int("channels", len(rep.Outcomes)),
		logx.Int("sent", rep.Sent()),
		logx.Bool("dry_run", opts.DryRun))
	return rep, nil
}

// TitleStatus implements the site generator's visibility check: a game
// scheduled for the current or a past week is shown, a future week stays
// hidden, and a title absent from the predictions reports as such.
func (p *Pipeline) TitleStatus(title string) (string, error) {
	store, err := predict.Load(p.Cfg.Paths.Predictions, p.Log)
	if err != nil {
		return "", err
	}
	key, ok := store.FindTitle(title)
	if !ok {
		return "NOT_IN_PREDICTIONS", nil
	}
	switch seed.Classify(key, p.now()) {
	case seed.StatusCurrent, seed.StatusPast:
		return "SHOW_GAME", nil
	default:
		// Future and unparseable seeds both keep the game hidden.
		return "HIDE_GAME", nil
	}
}
