package bot

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"

	"subgate/entity"
)

// Callback data prefixes for inline keyboard buttons.
// Telegram limits callback data to 64 bytes, so prefixes are kept short.
const (
	cbMenu     = "gm:" // gm:add, gm:list, gm:delete, gm:back
	cbDelete   = "gd:" // gd:<gate_id>
	cbRegister = "reg" // register button under the welcome message
)

// menuAction is the decoded form of a gate-menu button press. Callback data
// is parsed exactly once, here; handlers switch on the typed action.
type menuAction string

const (
	actionAdd    menuAction = "add"
	actionList   menuAction = "list"
	actionDelete menuAction = "delete"
	actionBack   menuAction = "back"
)

func decodeMenuAction(data string) (menuAction, bool) {
	switch menuAction(strings.TrimPrefix(data, cbMenu)) {
	case actionAdd:
		return actionAdd, true
	case actionList:
		return actionList, true
	case actionDelete:
		return actionDelete, true
	case actionBack:
		return actionBack, true
	}
	return "", false
}

// --- Keyboard builders ---

func buildGateMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{{Text: "➕ Add channel", CallbackData: cbMenu + string(actionAdd)}},
			{{Text: "📋 Channel list", CallbackData: cbMenu + string(actionList)}},
			{{Text: "❌ Delete channel", CallbackData: cbMenu + string(actionDelete)}},
			{{Text: "⬅️ Back", CallbackData: cbMenu + string(actionBack)}},
		},
	}
}

// buildDeleteKeyboard lists one delete button per gate plus a back button.
func buildDeleteKeyboard(gates []*entity.Gate) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(gates)+1)
	for _, g := range gates {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			{Text: "Delete: " + g.URL, CallbackData: cbDelete + g.ID},
		})
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		{Text: "⬅️ Back", CallbackData: cbMenu + string(actionBack)},
	})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func buildRegisterKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
			{{Text: "✅ Register", CallbackData: cbRegister}},
		},
	}
}

// gateListText renders the admin-facing gate list, sanitized for MarkdownV2.
func gateListText(gates []*entity.Gate) string {
	var sb strings.Builder
	sb.WriteString("📋 Mandatory subscription channels:\n")
	for i, g := range gates {
		sb.WriteString(Sanitize(fmt.Sprintf("%d. %s (ID: %s) - %d members, %d minutes\n",
			i+1, g.URL, g.ID, g.Limit, g.DurationMinutes)))
	}
	return sb.String()
}

// --- Callback handlers ---

// onMenuCallback handles gate menu button presses. Admin only.
func (t *TgBot) onMenuCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	chatId := cq.From.Id

	if !t.isAdmin(chatId) {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "You are not allowed to do that", ShowAlert: true})
		return nil
	}

	action, ok := decodeMenuAction(cq.Data)
	if !ok {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "Unknown action"})
		return nil
	}

	switch action {
	case actionAdd:
		t.startDialog(chatId)
	case actionList:
		gates := t.registry.List()
		if len(gates) == 0 {
			t.plainResponse(chatId, "📭 No channels yet\\.")
		} else {
			t.plainResponse(chatId, gateListText(gates))
		}
	case actionDelete:
		gates := t.registry.List()
		if len(gates) == 0 {
			t.plainResponse(chatId, "📭 No channels yet\\.")
		} else {
			t.sendWithKeyboard(chatId, "❌ Which channel do you want to delete?", buildDeleteKeyboard(gates))
		}
	case actionBack:
		t.sendWithKeyboard(chatId, "📌 Channel menu:", buildGateMenu())
	}

	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{})
	return nil
}

// onDeleteCallback removes the gate named by the button. Admin only.
func (t *TgBot) onDeleteCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	chatId := cq.From.Id

	if !t.isAdmin(chatId) {
		_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{Text: "You are not allowed to do that", ShowAlert: true})
		return nil
	}

	id := strings.TrimPrefix(cq.Data, cbDelete)
	err := t.registry.Remove(id)
	if err != nil {
		t.plainResponse(chatId, "⚠️ Channel not found\\.")
	} else {
		t.log.Info("gate deleted by admin", slog.String("id", id))
		t.plainResponse(chatId, "✅ Channel deleted\\.")
	}

	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{})
	return nil
}

// onRegisterCallback runs the registration flow for whoever pressed the
// welcome button.
func (t *TgBot) onRegisterCallback(_ *tgbotapi.Bot, ctx *ext.Context) error {
	cq := ctx.CallbackQuery
	_, _ = cq.Answer(t.api, &tgbotapi.AnswerCallbackQueryOpts{})
	t.doRegister(cq.From.Id)
	return nil
}
