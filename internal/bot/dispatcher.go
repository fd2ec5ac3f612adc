package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tbourn/go-sleep-tracker/internal/domain"
	"github.com/tbourn/go-sleep-tracker/internal/search"
	"github.com/tbourn/go-sleep-tracker/internal/services"
)

// Sessions is the lifecycle API the dispatcher drives. It is satisfied by
// *services.SessionService.
type Sessions interface {
	Register(ctx context.Context, userID int64, name string)
	Start(ctx context.Context, userID int64, name string, now time.Time) (*domain.OpenSession, error)
	End(ctx context.Context, userID int64, name string, now time.Time) (*domain.FinishedSession, error)
	PendingRating(ctx context.Context, userID int64, name string, now time.Time) (*domain.FinishedSession, error)
	Rate(ctx context.Context, userID, sessionID int64, quality int, now time.Time) (*domain.FinishedSession, error)
	PendingNote(ctx context.Context, userID int64, name string, now time.Time) (*services.NoteTarget, error)
	Annotate(ctx context.Context, userID, sessionID int64, text string, now time.Time) (*domain.FinishedSession, error)
}

// Stats is satisfied by *services.StatsService.
type Stats interface {
	Summary(ctx context.Context, userID int64) (*services.Summary, error)
}

// Tips is satisfied by *search.Recommender.
type Tips interface {
	Recommend(topic string, k int) []search.Result
}

var updatesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sleeptracker_bot_updates_total",
		Help: "Bot updates handled, by command and outcome (ok|rejected|error).",
	},
	[]string{"command", "outcome"},
)

func init() {
	prometheus.MustRegister(updatesTotal)
}

// Dispatcher routes updates to handlers. The only state it keeps is which
// users owe a note: after /notes, that user's next plain text message is
// stored as the note. It is safe for concurrent use.
type Dispatcher struct {
	sessions Sessions
	stats    Stats
	tips     Tips

	now      func() time.Time
	lang     language.Tag
	tipCount int
	log      zerolog.Logger

	mu           sync.Mutex
	pendingNotes map[int64]int64 // user id -> session id
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLanguage sets the locale used for numbers and name casing.
func WithLanguage(tag language.Tag) Option {
	return func(d *Dispatcher) { d.lang = tag }
}

// WithTipCount sets how many tips a topic search returns (default 3).
func WithTipCount(k int) Option {
	return func(d *Dispatcher) {
		if k > 0 {
			d.tipCount = k
		}
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// New returns a Dispatcher.
func New(sessions Sessions, stats Stats, tips Tips, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sessions:     sessions,
		stats:        stats,
		tips:         tips,
		now:          time.Now,
		lang:         language.English,
		tipCount:     3,
		log:          log.Logger,
		pendingNotes: make(map[int64]int64),
	}
	for _, o := range opts {
		o(d)
	}
	d.log = d.log.With().Str("component", "bot").Logger()
	return d
}

// Handle answers one update. It never returns an error: faults become a
// "please try again" message and are logged.
func (d *Dispatcher) Handle(ctx context.Context, u Update) Reply {
	ctx, span := otel.Tracer("bot/Dispatcher").Start(ctx, "Handle",
		trace.WithAttributes(attribute.Int64("user.id", u.UserID)),
	)
	defer span.End()

	if data := strings.TrimSpace(u.CallbackData); data != "" {
		if strings.HasPrefix(data, qualityPrefix) {
			return d.rateButton(ctx, u, data)
		}
		return d.command(ctx, u, data, "")
	}

	msg := strings.TrimSpace(u.Text)
	if strings.HasPrefix(msg, "/") {
		name, args := splitCommand(msg)
		span.SetAttributes(attribute.String("bot.command", name))
		return d.command(ctx, u, name, args)
	}

	if sessionID, ok := d.takeNote(u.UserID); ok {
		return d.saveNote(ctx, u, sessionID, u.Text)
	}

	updatesTotal.WithLabelValues("text", "rejected").Inc()
	return reply(text(msgUnknown))
}

// splitCommand splits "/recom@SleepBot late coffee" into "/recom" and
// "late coffee".
func splitCommand(s string) (string, string) {
	name, args, _ := strings.Cut(s, " ")
	if at := strings.IndexByte(name, '@'); at > 0 {
		name = name[:at]
	}
	return strings.ToLower(name), strings.TrimSpace(args)
}

func (d *Dispatcher) command(ctx context.Context, u Update, name, args string) Reply {
	// Any command abandons a note the user was asked for.
	d.dropNote(u.UserID)

	switch name {
	case cmdStart:
		return d.start(ctx, u)
	case cmdHelp:
		return d.ok(cmdHelp, reply(text(msgHelpHeader+commandList, menu()...)))
	case cmdSleep:
		return d.sleep(ctx, u)
	case cmdWake:
		return d.wake(ctx, u)
	case cmdQuality:
		return d.quality(ctx, u)
	case cmdNotes:
		return d.notes(ctx, u)
	case cmdRecom:
		return d.recom(args)
	case cmdStatis:
		return d.statis(ctx, u)
	}
	updatesTotal.WithLabelValues("unknown", "rejected").Inc()
	return reply(text(msgUnknown))
}

func (d *Dispatcher) printer() *message.Printer { return message.NewPrinter(d.lang) }

func (d *Dispatcher) ok(cmd string, r Reply) Reply {
	updatesTotal.WithLabelValues(cmd, "ok").Inc()
	return r
}

func (d *Dispatcher) rejected(cmd string, r Reply) Reply {
	updatesTotal.WithLabelValues(cmd, "rejected").Inc()
	return r
}

func (d *Dispatcher) failed(cmd string, u Update, err error) Reply {
	updatesTotal.WithLabelValues(cmd, "error").Inc()
	d.log.Error().Err(err).Str("command", cmd).Int64("user_id", u.UserID).Msg("bot update failed")
	return reply(text(msgTryAgain))
}

func (d *Dispatcher) start(ctx context.Context, u Update) Reply {
	d.sessions.Register(ctx, u.UserID, u.FirstName)

	greeting := "Hi!"
	if name := strings.TrimSpace(u.FirstName); name != "" {
		greeting = "Hi, " + cases.Title(d.lang).String(name) + "!"
	}
	body := greeting + "\nI help you track how long and how well you sleep 💤\nUse the buttons or commands:\n\n" + commandList
	return d.ok(cmdStart, reply(text(body, menu()...)))
}

func (d *Dispatcher) sleep(ctx context.Context, u Update) Reply {
	_, err := d.sessions.Start(ctx, u.UserID, u.FirstName, d.now())
	switch {
	case errors.Is(err, services.ErrAlreadyOpen):
		return d.rejected(cmdSleep, reply(text(msgAlreadyOpen, row(btnWake))))
	case err != nil:
		return d.failed(cmdSleep, u, err)
	}
	return d.ok(cmdSleep, reply(text(msgSleepStarted), text(msgMarkWake, row(btnWake))))
}

func (d *Dispatcher) wake(ctx context.Context, u Update) Reply {
	fin, err := d.sessions.End(ctx, u.UserID, u.FirstName, d.now())
	switch {
	case errors.Is(err, services.ErrNoOpenSession):
		return d.rejected(cmdWake, reply(text(msgNoOpen, row(btnSleep))))
	case err != nil:
		return d.failed(cmdWake, u, err)
	}

	slept := services.SplitSeconds(int64(fin.Duration() / time.Second))
	body := d.printer().Sprintf(
		"Hope you slept well! ☀ You slept about %d hours %d minutes.\nDon't forget to rate your sleep today 😌",
		slept.Hours, slept.Minutes,
	)
	return d.ok(cmdWake, reply(text(body), text(msgRatePrompt, row(btnQuality))))
}

func (d *Dispatcher) quality(ctx context.Context, u Update) Reply {
	fin, err := d.sessions.PendingRating(ctx, u.UserID, u.FirstName, d.now())
	switch {
	case errors.Is(err, services.ErrNothingToRate):
		return d.rejected(cmdQuality, reply(text(msgNothingToRate, row(btnWake))))
	case err != nil:
		return d.failed(cmdQuality, u, err)
	}

	rows := make([][]Button, 0, 5)
	for q := 1; q <= 5; q++ {
		rows = append(rows, row(Button{Text: strconv.Itoa(q), Data: ratingData(q, fin.ID)}))
	}
	return d.ok(cmdQuality, reply(text(qualityScale, rows...)))
}

func ratingData(quality int, sessionID int64) string {
	return qualityPrefix + strconv.Itoa(quality) + "_" + strconv.FormatInt(sessionID, 10)
}

// parseRatingData reverses ratingData.
func parseRatingData(data string) (quality int, sessionID int64, ok bool) {
	parts := strings.Split(strings.TrimPrefix(data, qualityPrefix), "_")
	if len(parts) != 2 {
		return 0, 0, false
	}
	q, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, false
	}
	return q, id, true
}

func (d *Dispatcher) rateButton(ctx context.Context, u Update, data string) Reply {
	const cmd = "rate"
	q, id, ok := parseRatingData(data)
	if !ok {
		return d.rejected(cmd, reply(text(msgBadButton)))
	}

	_, err := d.sessions.Rate(ctx, u.UserID, id, q, d.now())
	switch {
	case errors.Is(err, services.ErrInvalidQuality):
		return d.rejected(cmd, reply(text(msgBadButton)))
	case errors.Is(err, services.ErrNothingToRate):
		return d.rejected(cmd, reply(text(msgNothingToRate, row(btnWake))))
	case err != nil:
		return d.failed(cmd, u, err)
	}

	body := d.printer().Sprintf("Your sleep quality score %d is saved! You can add a comment with /notes or the button below:", q)
	return d.ok(cmd, reply(text(body, row(btnNotes))))
}

func (d *Dispatcher) notes(ctx context.Context, u Update) Reply {
	target, err := d.sessions.PendingNote(ctx, u.UserID, u.FirstName, d.now())
	switch {
	case errors.Is(err, services.ErrNothingRated):
		return d.rejected(cmdNotes, reply(text(msgNoRated, row(btnQuality))))
	case err != nil:
		return d.failed(cmdNotes, u, err)
	}

	d.armNote(u.UserID, target.Session.ID)
	if target.Note != nil {
		body := d.printer().Sprintf("You already have a note for this sleep session: \"%s\". Write a new comment to replace it 😊", *target.Note)
		return d.ok(cmdNotes, reply(text(body)))
	}
	return d.ok(cmdNotes, reply(text(msgAskNote)))
}

func (d *Dispatcher) saveNote(ctx context.Context, u Update, sessionID int64, note string) Reply {
	const cmd = "note"
	_, err := d.sessions.Annotate(ctx, u.UserID, sessionID, note, d.now())
	switch {
	case errors.Is(err, services.ErrEmptyNote):
		d.armNote(u.UserID, sessionID)
		return d.rejected(cmd, reply(text(msgEmptyNote)))
	case errors.Is(err, services.ErrNoteTooLong):
		d.armNote(u.UserID, sessionID)
		return d.rejected(cmd, reply(text("That note is too long. Please shorten it and send it again.")))
	case errors.Is(err, services.ErrNothingRated):
		return d.rejected(cmd, reply(text(msgNoRated, row(btnQuality))))
	case err != nil:
		return d.failed(cmd, u, err)
	}
	return d.ok(cmd, reply(text(msgNoteSaved)))
}

func (d *Dispatcher) recom(topic string) Reply {
	p := d.printer()
	if topic == "" {
		var b strings.Builder
		b.WriteString(msgTipsHeader)
		for i, r := range d.tips.Recommend("", 0) {
			b.WriteString(p.Sprintf("%d. %s\n\n", i+1, r.Snippet))
		}
		return d.ok(cmdRecom, reply(text(strings.TrimRight(b.String(), "\n"))))
	}

	found := d.tips.Recommend(topic, d.tipCount)
	if len(found) == 0 {
		return d.rejected(cmdRecom, reply(text(p.Sprintf("No tips match \"%s\". Send /recom for the full list.", topic))))
	}
	lines := make([]string, len(found))
	for i, r := range found {
		lines[i] = "• " + r.Snippet
	}
	return d.ok(cmdRecom, reply(text(strings.Join(lines, "\n\n"))))
}

func (d *Dispatcher) statis(ctx context.Context, u Update) Reply {
	sum, err := d.stats.Summary(ctx, u.UserID)
	switch {
	case errors.Is(err, services.ErrNoSleepData):
		return d.rejected(cmdStatis, reply(text(msgNoData)))
	case err != nil:
		return d.failed(cmdStatis, u, err)
	}

	body := d.printer().Sprintf(
		"💤📊 Your sleep statistics:\n\n😴 Sleep sessions: %d\n\n⏳ Total sleep: %d hours %d minutes\n\n🛌 Average sleep: %d hours %d minutes",
		sum.Sessions, sum.Total.Hours, sum.Total.Minutes, sum.Average.Hours, sum.Average.Minutes,
	)
	return d.ok(cmdStatis, reply(text(body)))
}

// ---- pending note steps ----

func (d *Dispatcher) armNote(userID, sessionID int64) {
	d.mu.Lock()
	d.pendingNotes[userID] = sessionID
	d.mu.Unlock()
}

// takeNote removes and returns the user's pending note target.
func (d *Dispatcher) takeNote(userID int64) (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.pendingNotes[userID]
	if ok {
		delete(d.pendingNotes, userID)
	}
	return id, ok
}

func (d *Dispatcher) dropNote(userID int64) {
	d.mu.Lock()
	delete(d.pendingNotes, userID)
	d.mu.Unlock()
}
