package bot

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subgate/entity"
	"subgate/internal/registry"
)

func TestDialog_HappyPath(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := &dialogSession{step: stepURL}

	res := s.advance("t.me/c1", now)
	assert.False(t, res.done)
	assert.Contains(t, res.reply, "channel ID")

	res = s.advance("c1", now)
	assert.False(t, res.done)
	assert.Contains(t, res.reply, "minutes")

	res = s.advance("5 minutes", now)
	assert.False(t, res.done)
	assert.Contains(t, res.reply, "members")

	res = s.advance("2", now)
	require.True(t, res.done)
	require.NotNil(t, res.gate)

	g := res.gate
	assert.Equal(t, "c1", g.ID)
	assert.Equal(t, "t.me/c1", g.URL)
	assert.Equal(t, 5, g.DurationMinutes)
	assert.Equal(t, 2, g.Limit)
	assert.Equal(t, now, g.CreatedAt)
	assert.Equal(t, now.Add(5*time.Minute), g.EndTime)
	assert.Empty(t, g.Members)
}

// Bad input at the duration step keeps the dialog on the same step; the next
// valid input still succeeds.
func TestDialog_DurationRetries(t *testing.T) {
	now := time.Now()
	s := &dialogSession{step: stepURL}
	s.advance("t.me/c1", now)
	s.advance("c1", now)

	for _, input := range []string{"abc", "-3", "0", ""} {
		res := s.advance(input, now)
		assert.False(t, res.done, "input %q must not end the dialog", input)
		assert.Contains(t, res.reply, "positive number")
		assert.Equal(t, stepDuration, s.step)
	}

	res := s.advance("5", now)
	assert.False(t, res.done)
	assert.Equal(t, stepLimit, s.step)
}

// Bad input at the limit step ends the dialog; there is no retry.
func TestDialog_LimitIsTerminal(t *testing.T) {
	now := time.Now()
	s := &dialogSession{step: stepURL}
	s.advance("t.me/c1", now)
	s.advance("c1", now)
	s.advance("5", now)

	res := s.advance("abc", now)
	assert.True(t, res.done)
	assert.Nil(t, res.gate)
	assert.Contains(t, res.reply, "cancelled")
}

func TestDialog_LimitRejectsNonPositive(t *testing.T) {
	now := time.Now()
	s := &dialogSession{step: stepLimit, url: "t.me/c1", id: "c1", duration: 5}

	res := s.advance("0", now)
	assert.True(t, res.done)
	assert.Nil(t, res.gate)
}

func TestDialog_DurationUsesFirstToken(t *testing.T) {
	now := time.Now()
	s := &dialogSession{step: stepDuration, url: "t.me/c1", id: "c1"}

	res := s.advance("7 minut iltimos", now)
	assert.False(t, res.done)
	assert.Equal(t, 7, s.duration)
}

// fakeRegistry satisfies the Registry interface with a scripted Add result.
type fakeRegistry struct {
	addErr error
	added  []*entity.Gate
}

func (f *fakeRegistry) Add(g *entity.Gate) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, g)
	return nil
}

func (f *fakeRegistry) Remove(string) error               { return nil }
func (f *fakeRegistry) List() []*entity.Gate              { return nil }
func (f *fakeRegistry) RegisterUser(int64) []*entity.Gate { return nil }

func TestCreateGate_Success(t *testing.T) {
	reg := &fakeRegistry{}
	g := entity.New("c1", "t.me/c1", 5, 2, time.Now())

	msg, created := createGate(reg, g)
	assert.True(t, created)
	assert.Contains(t, msg, "Channel added")
	assert.Contains(t, msg, "URL: t.me/c1")
	assert.Contains(t, msg, "ID: c1")
	assert.Contains(t, msg, "Duration: 5 minutes")
	assert.Contains(t, msg, "Limit: 2 members")
	require.Len(t, reg.added, 1)
}

// A duplicate id must produce an explicit message for the admin, never a
// silent clear.
func TestCreateGate_DuplicateID(t *testing.T) {
	reg := &fakeRegistry{addErr: registry.ErrDuplicateID}
	g := entity.New("c1", "t.me/c1", 5, 2, time.Now())

	msg, created := createGate(reg, g)
	assert.False(t, created)
	assert.Contains(t, msg, "already exists")
	assert.Contains(t, msg, "c1")
}

func TestCreateGate_InvalidGate(t *testing.T) {
	reg := &fakeRegistry{}
	g := entity.New("", "t.me/c1", 5, 2, time.Now())

	msg, created := createGate(reg, g)
	assert.False(t, created)
	assert.Contains(t, msg, "Invalid channel data")
	assert.Empty(t, reg.added, "an invalid gate never reaches the registry")
}

func testBot() *TgBot {
	return &TgBot{
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		dialogs: make(map[int64]*dialogSession),
	}
}

func TestAdvanceDialog_NoSession(t *testing.T) {
	b := testBot()
	_, ok := b.advanceDialog(1, "t.me/c1", time.Now())
	assert.False(t, ok)
}

func TestAdvanceDialog_ClearsOnDone(t *testing.T) {
	b := testBot()
	b.dialogs[1] = &dialogSession{step: stepLimit, url: "t.me/c1", id: "c1", duration: 5}

	res, ok := b.advanceDialog(1, "abc", time.Now())
	require.True(t, ok)
	assert.True(t, res.done)

	// the session is gone; the next message finds no dialog open
	_, ok = b.advanceDialog(1, "2", time.Now())
	assert.False(t, ok)
}

// Two messages arriving on separate dispatcher goroutines must not touch
// the same session concurrently; run with -race.
func TestAdvanceDialog_ConcurrentMessages(t *testing.T) {
	b := testBot()
	b.dialogs[1] = &dialogSession{step: stepURL}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := b.advanceDialog(1, "x", time.Now())
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	// both messages were consumed, one step each
	require.Contains(t, b.dialogs, int64(1))
	assert.Equal(t, stepDuration, b.dialogs[1].step)
}
