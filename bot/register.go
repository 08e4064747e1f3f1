package bot

import (
	"fmt"
	"log/slog"

	"subgate/entity"
)

// doRegister adds the user to every gate they have not joined yet and sends
// one confirmation per newly joined gate. Running it again is harmless: the
// member sets already contain the user, so nothing mutates and the user gets
// the nothing-to-do message.
func (t *TgBot) doRegister(userId int64) {
	joined := t.registry.RegisterUser(userId)
	if len(joined) == 0 {
		t.plainResponse(userId, "ℹ️ You are already registered for all channels, or there are no channels yet")
		return
	}

	t.log.Info("user registered",
		slog.Int64("user_id", userId),
		slog.Int("gates", len(joined)),
	)
	for _, g := range joined {
		t.plainResponse(userId, registrationText(g))
	}
}

// registrationText renders one per-gate confirmation, sanitized for
// MarkdownV2. The member count already includes the new user.
func registrationText(g *entity.Gate) string {
	return Sanitize(fmt.Sprintf(
		"✅ Successfully registered for %s!\n🔹 Mandatory subscription: %d minutes\n👥 Current members: %d/%d",
		g.URL, g.DurationMinutes, len(g.Members), g.Limit))
}
