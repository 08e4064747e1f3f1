package entity

import (
	"time"

	"subgate/lib/validate"
)

// Gate is one mandatory-subscription channel. A gate is created by the admin
// with a fixed time window and a member cap; it is removed when the window
// elapses, when the cap fills, or when the admin deletes it explicitly.
// EndTime is computed once at creation and never recomputed.
type Gate struct {
	ID              string    `bson:"kanal_id" validate:"required"`
	URL             string    `bson:"url" validate:"required"`
	DurationMinutes int       `bson:"vaqt" validate:"gt=0"`
	Limit           int       `bson:"limit" validate:"gt=0"`
	CreatedAt       time.Time `bson:"created_at"`
	EndTime         time.Time `bson:"end_time"`
	Members         []int64   `bson:"members"`
}

func New(id, url string, durationMinutes, limit int, now time.Time) *Gate {
	return &Gate{
		ID:              id,
		URL:             url,
		DurationMinutes: durationMinutes,
		Limit:           limit,
		CreatedAt:       now,
		EndTime:         now.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

func (g *Gate) Validate() error {
	return validate.Struct(g)
}

// Expired reports whether the gate's time window has elapsed.
func (g *Gate) Expired(now time.Time) bool {
	return !now.Before(g.EndTime)
}

// Full reports whether the member cap has been reached.
func (g *Gate) Full() bool {
	return len(g.Members) >= g.Limit
}

func (g *Gate) HasMember(userID int64) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// AddMember appends userID to the member set and reports whether the user
// was newly added. Members never contains duplicates.
func (g *Gate) AddMember(userID int64) bool {
	if g.HasMember(userID) {
		return false
	}
	g.Members = append(g.Members, userID)
	return true
}

// Clone returns a deep copy, so callers can iterate or display a gate
// without holding the registry lock.
func (g *Gate) Clone() *Gate {
	c := *g
	c.Members = append([]int64(nil), g.Members...)
	return &c
}
