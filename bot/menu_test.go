package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subgate/entity"
)

func TestDecodeMenuAction(t *testing.T) {
	tests := []struct {
		data   string
		action menuAction
		ok     bool
	}{
		{"gm:add", actionAdd, true},
		{"gm:list", actionList, true},
		{"gm:delete", actionDelete, true},
		{"gm:back", actionBack, true},
		{"gm:bogus", "", false},
		{"gm:", "", false},
	}
	for _, tc := range tests {
		action, ok := decodeMenuAction(tc.data)
		assert.Equal(t, tc.ok, ok, tc.data)
		assert.Equal(t, tc.action, action, tc.data)
	}
}

func TestBuildDeleteKeyboard(t *testing.T) {
	gates := []*entity.Gate{
		entity.New("c1", "t.me/c1", 5, 2, time.Now()),
		entity.New("c2", "t.me/c2", 5, 2, time.Now()),
	}

	kb := buildDeleteKeyboard(gates)
	require.Len(t, kb.InlineKeyboard, 3, "one row per gate plus the back row")
	assert.Equal(t, "gd:c1", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "gd:c2", kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "gm:back", kb.InlineKeyboard[2][0].CallbackData)
}

func TestWelcomeText(t *testing.T) {
	g := entity.New("c1", "t.me/c1", 5, 2, time.Now())
	g.AddMember(100)

	text := welcomeText([]*entity.Gate{g})
	assert.Contains(t, text, "t\\.me/c1")
	assert.Contains(t, text, "5 minutes")
	assert.Contains(t, text, "1/2 members")
	assert.Contains(t, text, "/register")
}

func TestGateListText(t *testing.T) {
	gates := []*entity.Gate{
		entity.New("c1", "t.me/c1", 5, 2, time.Now()),
		entity.New("c2", "t.me/c2", 30, 7, time.Now()),
	}

	text := gateListText(gates)
	assert.Contains(t, text, "ID: c1")
	assert.Contains(t, text, "2 members, 5 minutes")
	assert.Contains(t, text, "7 members, 30 minutes")
}

func TestRegistrationText(t *testing.T) {
	g := entity.New("c1", "t.me/c1", 5, 2, time.Now())
	g.AddMember(100)

	text := registrationText(g)
	assert.Contains(t, text, "t\\.me/c1")
	assert.Contains(t, text, "1/2")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "t\\.me/c1", Sanitize("t.me/c1"))
	assert.Equal(t, "a\\_b \\(c\\)", Sanitize("a_b (c)"))
	assert.Equal(t, "plain", Sanitize("plain"))
}
