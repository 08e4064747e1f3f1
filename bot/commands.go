package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"subgate/entity"
)

// start greets the user with the current gate summary and a register button.
func (t *TgBot) start(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id

	gates := t.registry.List()
	if len(gates) == 0 {
		t.plainResponse(chatId, "ℹ️ There are no mandatory subscription channels yet")
		return nil
	}

	t.sendWithKeyboard(chatId, welcomeText(gates), buildRegisterKeyboard())
	return nil
}

// welcomeText renders the /start summary, sanitized for MarkdownV2.
func welcomeText(gates []*entity.Gate) string {
	var sb strings.Builder
	sb.WriteString("👋 Welcome\\! You can register for the following channels:\n\n")
	sb.WriteString("📌 *Mandatory subscription channels:*\n")
	for i, g := range gates {
		sb.WriteString(Sanitize(fmt.Sprintf("%d. %s - %d minutes, %d/%d members\n",
			i+1, g.URL, g.DurationMinutes, len(g.Members), g.Limit)))
	}
	sb.WriteString("\nPress the button below or send /register")
	return sb.String()
}

// register runs the registration flow for the calling user.
func (t *TgBot) register(_ *tgbotapi.Bot, ctx *ext.Context) error {
	t.doRegister(ctx.EffectiveUser.Id)
	return nil
}

// channels opens the gate menu. Admin only.
func (t *TgBot) channels(_ *tgbotapi.Bot, ctx *ext.Context) error {
	chatId := ctx.EffectiveUser.Id
	if !t.isAdmin(chatId) {
		t.plainResponse(chatId, "⚠️ You are not allowed to do that\\!")
		return nil
	}
	t.sendWithKeyboard(chatId, "📌 Channel menu:", buildGateMenu())
	return nil
}
