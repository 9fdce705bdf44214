package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xhrome/foodbot/internal/models"
	"github.com/xhrome/foodbot/internal/service"
	appErrors "github.com/xhrome/foodbot/pkg/errors"
)

func (b *Bot) handle(ctx context.Context, upd tgbotapi.Update) error {
	switch {
	case upd.CallbackQuery != nil:
		return b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		return b.handleMessage(ctx, upd.Message)
	default:
		return nil
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if m.IsCommand() {
		return b.handleCommand(ctx, m)
	}

	user := m.Chat.UserName
	switch {
	case m.Document != nil:
		if !b.isAllowed(user) {
			return nil
		}
		doc := models.Document{FileID: m.Document.FileID, Name: m.Document.FileName}
		res := b.uploads.Submit(ctx, doc, false, b.uploadStarted(m.Chat.ID))
		b.reportUpload(m.Chat.ID, doc, res)

	case len(m.Photo) > 0:
		if !b.isAllowed(user) {
			return nil
		}
		// Telegram sends several sizes; the last one is the original.
		photo := m.Photo[len(m.Photo)-1]
		res := b.uploads.SubmitPhoto(ctx, photo.FileID, b.uploadStarted(m.Chat.ID))
		b.reportUpload(m.Chat.ID, models.Document{}, res)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, m *tgbotapi.Message) error {
	user := m.Chat.UserName

	switch m.Command() {
	case cmdStart:
		if !b.isAllowed(user) {
			b.sendMarkdown(m.Chat.ID, msgGreetingDenied, nil)
			return nil
		}
		kb := callbackKeyboard(
			button{btnUploadMenu, cbMenuHint},
			button{btnUploadTable, cbTableHint},
		)
		b.sendMarkdown(m.Chat.ID, msgGreeting, &kb)

	case cmdStatus:
		if !b.isAllowed(user) {
			return nil
		}
		b.reportStatus(ctx, m.Chat.ID)

	case cmdDeleteLast:
		if !b.isPrivileged(user) {
			b.send(m.Chat.ID, msgNoPermissions)
			return nil
		}
		b.promptDeleteLast(ctx, m.Chat.ID)

	case cmdUpdateJSON:
		if !b.isPrivileged(user) {
			b.send(m.Chat.ID, msgNoPermissions)
			return nil
		}
		if err := b.index.Refresh(ctx); err != nil {
			b.logger.Error("index refresh failed", zap.Error(err))
			b.send(m.Chat.ID, msgIndexRefreshFailed)
			return nil
		}
		b.send(m.Chat.ID, msgIndexRefreshed)
	}
	return nil
}

// promptDeleteLast arms the confirmation and shows which file would go. The
// guard keeps a second /delete_last silent while a prompt is pending.
func (b *Bot) promptDeleteLast(ctx context.Context, chatID int64) {
	if !b.pending.scheduleDelete(chatID) {
		return
	}

	last, err := b.index.LastStoredTable(ctx)
	if err != nil || last == nil {
		b.pending.confirmDelete(chatID)
		if err != nil {
			b.logger.Error("could not look up last table", zap.Error(err))
		}
		b.send(chatID, msgDeleteNotFound)
		return
	}

	kb := callbackKeyboard(
		button{btnYes, cbDeleteYes},
		button{btnNo, cbDeleteNo},
	)
	b.sendMarkdown(chatID, fmt.Sprintf(fmtDeleteQuestion, last.Name), &kb)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	if _, err := b.client.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Warn("could not answer callback", zap.Error(err))
	}

	m := cq.Message
	if m == nil {
		return nil
	}
	chatID := m.Chat.ID

	switch cq.Data {
	case cbMenuHint:
		b.send(chatID, msgMenuHint)

	case cbTableHint:
		b.send(chatID, msgTableHint)

	case cbDeleteYes:
		b.deletePrompt(chatID, m.MessageID)
		if !b.isPrivileged(cq.From.UserName) {
			b.send(chatID, msgNoPermissions)
			return nil
		}
		if !b.pending.confirmDelete(chatID) {
			b.send(chatID, msgNothingToConfirm)
			return nil
		}
		b.deleteLastTable(ctx, chatID)

	case cbDeleteNo:
		b.deletePrompt(chatID, m.MessageID)
		b.pending.confirmDelete(chatID)

	case cbReplaceYes:
		b.deletePrompt(chatID, m.MessageID)
		doc, ok := b.pending.takeReplace(chatID)
		if !ok {
			b.send(chatID, msgNothingToConfirm)
			return nil
		}
		res := b.uploads.Submit(ctx, doc, true, b.uploadStarted(chatID))
		b.reportUpload(chatID, doc, res)

	case cbReplaceNo:
		b.deletePrompt(chatID, m.MessageID)
		b.pending.clearReplace(chatID)
	}
	return nil
}

func (b *Bot) deleteLastTable(ctx context.Context, chatID int64) {
	name, err := b.index.DeleteLastTable(ctx)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrNotFound) {
			b.send(chatID, msgDeleteNotFound)
			return
		}
		b.logger.Error("delete last table failed", zap.Error(err))
		b.send(chatID, fmt.Sprintf(fmtDeleteFailed, appErrors.FromError(err).Message))
		return
	}
	b.send(chatID, fmt.Sprintf(fmtDeleteDone, name))
}

// reportUpload maps an upload result to the user-visible reply. An
// already-uploaded table arms the replace confirmation and retains doc.
func (b *Bot) reportUpload(chatID int64, doc models.Document, res service.Result) {
	switch res.Status {
	case service.StatusSuccess:
		if res.Kind == models.KindTableFile {
			kb := urlKeyboard(btnCheckTable, b.cfg.TablePageURL)
			b.sendMarkdown(chatID, msgTableUploaded, &kb)
		} else {
			kb := urlKeyboard(btnCheckMenu, b.cfg.MenuPageURL)
			b.sendMarkdown(chatID, msgMenuUploaded, &kb)
		}

	case service.StatusAlreadyUploaded:
		if res.Kind == models.KindTableFile {
			b.pending.setReplace(chatID, doc)
			kb := callbackKeyboard(
				button{btnReplace, cbReplaceYes},
				button{btnCancel, cbReplaceNo},
			)
			b.sendMarkdown(chatID, msgTableAlreadyUploaded, &kb)
		} else {
			b.send(chatID, msgMenuAlreadyUploaded)
		}

	case service.StatusWrongType:
		b.send(chatID, msgWrongFileType)

	case service.StatusError:
		b.send(chatID, res.Message)
	}
}

func (b *Bot) reportStatus(ctx context.Context, chatID int64) {
	menu, err := b.status.LastMenu(ctx)
	if err != nil {
		b.logger.Error("menu status fetch failed", zap.Error(err))
		b.send(chatID, msgStatusMenuFailed)
	} else {
		b.send(chatID, fmt.Sprintf(fmtStatusMenu, orUnknown(menu.Name), orUnknown(menu.LastModificationDate)))
	}

	table, err := b.status.LastTable(ctx)
	if err != nil || table == nil {
		if err != nil {
			b.logger.Error("table status fetch failed", zap.Error(err))
		}
		b.send(chatID, msgStatusTableFailed)
		return
	}
	b.send(chatID, fmt.Sprintf(fmtStatusTable, table.Name, orUnknown(table.LastModificationDate)))
}

func (b *Bot) uploadStarted(chatID int64) func() {
	return func() {
		b.send(chatID, msgUploadStarted)
	}
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.client.Send(msg); err != nil {
		b.logger.Error("could not send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := b.client.Send(msg); err != nil {
		b.logger.Error("could not send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// deletePrompt removes a confirmation keyboard message once it is answered.
func (b *Bot) deletePrompt(chatID int64, messageID int) {
	if _, err := b.client.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.Warn("could not delete prompt", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

type button struct {
	text string
	data string
}

func callbackKeyboard(buttons ...button) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(btn.text, btn.data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func urlKeyboard(text, url string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(text, url)),
	)
}

func orUnknown(s string) string {
	if s == "" {
		return unknownValue
	}
	return s
}
