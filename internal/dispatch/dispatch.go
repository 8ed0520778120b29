// Package dispatch fans the composed announcement out to the configured
// channels: one email broadcast plus any number of chat endpoints.
//
// Channels are independent: a skip or failure on one never prevents the
// attempt on the next. Only the email channel's own result is reported
// as the run's primary outcome; chat channels are best-effort.
package dispatch

import (
	"context"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"bonjourarcade/internal/compose"
	"bonjourarcade/internal/journal"
	"bonjourarcade/pkg/logx"
)

// State is the terminal status of one channel attempt.
type State string

const (
	StateSent    State = "sent"
	StateSkipped State = "skipped"
	StateFailed  State = "failed"
)

// Outcome reports one channel's terminal state.
type Outcome struct {
	Label string
	Type  ChannelType
	State State
	Err   error
}

// Report collects the outcomes of one dispatch run.
type Report struct {
	Outcomes []Outcome
}

// EmailFailed reports whether an email channel was attempted and failed.
// Skipped email (unset secret) is not a failure: missing configuration
// is expected in partial deployments.
func (r Report) EmailFailed() bool {
	for _, o := range r.Outcomes {
		if o.Type == TypeEmail && o.State == StateFailed {
			return true
		}
	}
	return false
}

// Sent counts channels that reached StateSent.
func (r Report) Sent() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == StateSent {
			n++
		}
	}
	return n
}

// Meta identifies the run for journal entries.
type Meta struct {
	Seed   string
	GameID string
}

// Options configures a Dispatcher. Zero values get sensible defaults;
// the function fields exist so tests can cut the network out.
type Options struct {
	Log        logx.Logger
	DryRun     bool
	MailAPIURL string

	HTTPClient *http.Client
	Getenv     func(string) string
	Now        func() time.Time
	Journal    journal.Journal

	// WebhookRatePerSec throttles chat deliveries; chat providers
	// rate-limit incoming webhooks aggressively.
	WebhookRatePerSec int

	// TelegramSend overrides the Telegram delivery call (tests).
	TelegramSend func(ctx context.Context, token string, chatID int64, text string) error
}

type Dispatcher struct {
	log     logx.Logger
	dryRun  bool
	mailAPI string

	http    *http.Client
	getenv  func(string) string
	now     func() time.Time
	jrnl    journal.Journal
	limiter *rate.Limiter
	tgSend  func(ctx context.Context, token string, chatID int64, text string) error
}

func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		log:     opts.Log,
		dryRun:  opts.DryRun,
		mailAPI: opts.MailAPIURL,
		http:    opts.HTTPClient,
		getenv:  opts.Getenv,
		now:     opts.Now,
		jrnl:    opts.Journal,
		tgSend:  opts.TelegramSend,
	}
	if d.log.IsZero() {
		d.log = logx.Nop()
	}
	if d.http == nil {
		d.http = &http.Client{Timeout: 15 * time.Second}
	}
	if d.getenv == nil {
		d.getenv = os.Getenv
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.tgSend == nil {
		d.tgSend = sendTelegram
	}
	rps := opts.WebhookRatePerSec
	if rps <= 0 {
		rps = 5
	}
	d.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	return d
}

// Send delivers the content to every channel selected by the filter,
// sequentially and in map order. Each channel resolves its secret from
// the environment at this point; an unset variable or an unrecognized
// type skips the channel with a warning.
func (d *Dispatcher) Send(ctx context.Context, content compose.Content, channels ChannelMap, filter Filter, meta Meta) Report {
	var rep Report
	for _, ch := range filter.Apply(channels) {
		out := d.sendOne(ctx, content, ch)
		rep.Outcomes = append(rep.Outcomes, out)
		d.record(ctx, meta, content, out)
	}
	return rep
}

func (d *Dispatcher) sendOne(ctx context.Context, content compose.Content, ch Channel) Outcome {
	out := Outcome{Label: ch.Label, Type: ch.Spec.Type}

	secret := d.getenv(ch.Spec.Env)
	if secret == "" {
		d.log.Warn("channel secret not set, skipping",
			logx.String("channel", ch.Label), logx.String("env", ch.Spec.Env))
		out.State = StateSkipped
		return out
	}

	var err error
	switch ch.Spec.Type {
	case TypeEmail:
		err = d.sendEmail(ctx, content, secret)
	case TypeDiscord, TypeGoogleChat:
		err = d.sendWebhook(ctx, content, ch, secret)
	case TypeTelegram:
		err = d.sendTelegramChannel(ctx, content, ch, secret)
	default:
		d.log.Warn("unknown channel type, skipping",
			logx.String("channel", ch.Label), logx.String("type", string(ch.Spec.Type)))
		out.State = StateSkipped
		return out
	}

	if err != nil {
		d.log.Error("channel delivery failed",
			logx.String("channel", ch.Label), logx.String("type", string(ch.Spec.Type)), logx.Err(err))
		out.State = StateFailed
		out.Err = err
		return out
	}
	d.log.Info("channel delivered",
		logx.String("channel", ch.Label), logx.String("type", string(ch.Spec.Type)),
		logx.Bool("dry_run", d.dryRun))
	out.State = StateSent
	return out
}

func (d *Dispatcher) record(ctx context.Context, meta Meta, content compose.Content, out Outcome) {
	if d.jrnl == nil {
		return
	}
	e := journal.Entry{
		At:      d.now(),
		Seed:    meta.Seed,
		GameID:  meta.GameID,
		Channel: out.Label,
		Type:    string(out.Type),
		State:   string(out.State),
		Subject: content.Subject,
		DryRun:  d.dryRun,
	}
	if out.Err != nil {
		e.Error = out.Err.Error()
	}
	if err := d.jrnl.Append(ctx, e); err != nil {
		d.log.Warn("journal append failed", logx.Err(err))
	}
}

// boldFor returns the bold markup convention of a channel type.
func boldFor(t ChannelType) string {
	switch t {
	case TypeGoogleChat, TypeTelegram:
		return "*"
	default:
		return "**"
	}
}
