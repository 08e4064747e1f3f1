package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"subgate/entity"
	"subgate/internal/registry"
)

// The gate-creation dialog collects four fields over successive messages:
//
//	stepURL → stepID → stepDuration → stepLimit → finalize
//
// The duration step retries in place on bad input; the limit step is
// terminal either way. Sessions are keyed by admin chat id and have no
// timeout; an abandoned dialog simply waits for the next message.
type dialogStep int

const (
	stepURL dialogStep = iota
	stepID
	stepDuration
	stepLimit
)

type dialogSession struct {
	step     dialogStep
	url      string
	id       string
	duration int
}

// stepResult is the outcome of feeding one message into a session.
type stepResult struct {
	reply string       // prompt, validation message or nothing
	gate  *entity.Gate // parsed gate, set only on successful finalize
	done  bool         // session must be cleared
}

// advance consumes one inbound message and moves the session forward.
func (s *dialogSession) advance(text string, now time.Time) stepResult {
	switch s.step {
	case stepURL:
		s.url = text
		s.step = stepID
		return stepResult{reply: "🆔 Send the channel ID:"}

	case stepID:
		s.id = text
		s.step = stepDuration
		return stepResult{reply: "⏳ How many minutes should the subscription stay mandatory? (e.g. 5 minutes)"}

	case stepDuration:
		// Only the first token matters, so "5 minutes" parses as 5.
		fields := strings.Fields(text)
		var minutes int
		if len(fields) > 0 {
			minutes, _ = strconv.Atoi(fields[0])
		}
		if minutes <= 0 {
			return stepResult{reply: "⚠️ Please enter a positive number! For example: '5 minutes'"}
		}
		s.duration = minutes
		s.step = stepLimit
		return stepResult{reply: "👥 How many members are required? (e.g. 2)"}

	case stepLimit:
		limit, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || limit <= 0 {
			return stepResult{reply: "⚠️ Please enter a number! Channel creation cancelled.", done: true}
		}
		return stepResult{
			gate: entity.New(s.id, s.url, s.duration, limit, now),
			done: true,
		}
	}
	return stepResult{done: true}
}

// startDialog opens a fresh creation session for the admin. Callers have
// already checked the admin identity.
func (t *TgBot) startDialog(chatId int64) {
	t.mu.Lock()
	t.dialogs[chatId] = &dialogSession{step: stepURL}
	t.mu.Unlock()

	t.plainResponse(chatId, "📎 Send the channel link:")
}

// onDialogMessage routes a plain text message into the sender's open dialog,
// if any.
func (t *TgBot) onDialogMessage(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id

	result, ok := t.advanceDialog(chatId, ctx.EffectiveMessage.Text, time.Now())
	if !ok {
		return nil
	}

	if result.gate != nil {
		t.finalizeGate(chatId, result.gate)
		return nil
	}
	if result.reply != "" {
		t.plainResponse(chatId, Sanitize(result.reply))
	}
	return nil
}

// advanceDialog feeds one message into the sender's open session, holding
// the mutex across lookup, advance and removal so concurrent dispatcher
// goroutines cannot interleave on the same session state. advance is pure
// in-memory work; all sends happen after the lock is released.
func (t *TgBot) advanceDialog(chatId int64, text string, now time.Time) (stepResult, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.dialogs[chatId]
	if !ok {
		return stepResult{}, false
	}
	result := session.advance(text, now)
	if result.done {
		delete(t.dialogs, chatId)
	}
	return result, true
}

// finalizeGate stores a freshly collected gate and confirms the outcome to
// the admin.
func (t *TgBot) finalizeGate(chatId int64, g *entity.Gate) {
	msg, created := createGate(t.registry, g)
	if created {
		t.log.Info("gate created",
			slog.String("id", g.ID),
			slog.Int("duration_min", g.DurationMinutes),
			slog.Int("limit", g.Limit),
		)
	}
	t.plainResponse(chatId, Sanitize(msg))
}

// createGate validates and adds the gate, returning the admin-facing outcome
// message. A duplicate id is reported explicitly instead of being swallowed.
func createGate(reg Registry, g *entity.Gate) (string, bool) {
	if err := g.Validate(); err != nil {
		return fmt.Sprintf("⚠️ Invalid channel data: %s. Open the menu to try again.", err), false
	}

	err := reg.Add(g)
	switch {
	case errors.Is(err, registry.ErrDuplicateID):
		return fmt.Sprintf("⚠️ A channel with ID %s already exists. Open the menu to try again.", g.ID), false
	case err != nil:
		return fmt.Sprintf("⚠️ Could not add the channel: %s", err), false
	}

	return fmt.Sprintf(
		"✅ Channel added!\nURL: %s\nID: %s\nDuration: %d minutes\nLimit: %d members",
		g.URL, g.ID, g.DurationMinutes, g.Limit), true
}
