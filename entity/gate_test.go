package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_EndTime(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := New("c1", "t.me/c1", 5, 2, now)

	assert.Equal(t, now, g.CreatedAt)
	assert.Equal(t, now.Add(5*time.Minute), g.EndTime)
	assert.Empty(t, g.Members)
}

func TestGate_Validate(t *testing.T) {
	now := time.Now()

	require.NoError(t, New("c1", "t.me/c1", 5, 2, now).Validate())
	assert.Error(t, New("", "t.me/c1", 5, 2, now).Validate())
	assert.Error(t, New("c1", "", 5, 2, now).Validate())
	assert.Error(t, New("c1", "t.me/c1", 0, 2, now).Validate())
	assert.Error(t, New("c1", "t.me/c1", 5, -1, now).Validate())
}

func TestGate_AddMemberNoDuplicates(t *testing.T) {
	g := New("c1", "t.me/c1", 5, 3, time.Now())

	assert.True(t, g.AddMember(100))
	assert.False(t, g.AddMember(100))
	assert.True(t, g.AddMember(200))
	assert.Equal(t, []int64{100, 200}, g.Members)
}

func TestGate_Expired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := New("c1", "t.me/c1", 5, 2, now)

	assert.False(t, g.Expired(now))
	assert.False(t, g.Expired(now.Add(5*time.Minute-time.Second)))
	// now == endTime counts as expired
	assert.True(t, g.Expired(now.Add(5*time.Minute)))
	assert.True(t, g.Expired(now.Add(time.Hour)))
}

func TestGate_Full(t *testing.T) {
	g := New("c1", "t.me/c1", 5, 2, time.Now())

	assert.False(t, g.Full())
	g.AddMember(1)
	assert.False(t, g.Full())
	g.AddMember(2)
	assert.True(t, g.Full())
}

func TestGate_CloneIsolation(t *testing.T) {
	g := New("c1", "t.me/c1", 5, 3, time.Now())
	g.AddMember(1)

	c := g.Clone()
	c.AddMember(2)
	c.URL = "t.me/other"

	assert.Equal(t, []int64{1}, g.Members)
	assert.Equal(t, "t.me/c1", g.URL)
	assert.Equal(t, []int64{1, 2}, c.Members)
}
