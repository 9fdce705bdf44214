package bot

import (
	"context"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xhrome/foodbot/internal/models"
	"github.com/xhrome/foodbot/internal/service"
	appErrors "github.com/xhrome/foodbot/pkg/errors"
	"github.com/xhrome/foodbot/pkg/jobs"
)

type stubClient struct {
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (c *stubClient) Send(m tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := m.(tgbotapi.MessageConfig); ok {
		c.sent = append(c.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (c *stubClient) Request(m tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	c.requests = append(c.requests, m)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (c *stubClient) texts() []string {
	texts := make([]string, 0, len(c.sent))
	for _, m := range c.sent {
		texts = append(texts, m.Text)
	}
	return texts
}

func (c *stubClient) deletedPrompts() int {
	n := 0
	for _, r := range c.requests {
		if _, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			n++
		}
	}
	return n
}

type stubUploader struct {
	res      service.Result
	docs     []models.Document
	forces   []bool
	photoIDs []string
}

func (u *stubUploader) Submit(ctx context.Context, doc models.Document, force bool, started func()) service.Result {
	u.docs = append(u.docs, doc)
	u.forces = append(u.forces, force)
	if started != nil {
		started()
	}
	return u.res
}

func (u *stubUploader) SubmitPhoto(ctx context.Context, fileID string, started func()) service.Result {
	u.photoIDs = append(u.photoIDs, fileID)
	if started != nil {
		started()
	}
	return u.res
}

type stubIndexMaintainer struct {
	last         *models.FoodFile
	lastErr      error
	deleted      string
	deleteErr    error
	deleteCalls  int
	refreshErr   error
	refreshCalls int
}

func (s *stubIndexMaintainer) LastStoredTable(ctx context.Context) (*models.FoodFile, error) {
	return s.last, s.lastErr
}

func (s *stubIndexMaintainer) DeleteLastTable(ctx context.Context) (string, error) {
	s.deleteCalls++
	return s.deleted, s.deleteErr
}

func (s *stubIndexMaintainer) Refresh(ctx context.Context) error {
	s.refreshCalls++
	return s.refreshErr
}

type stubStatusReader struct {
	menu     *models.Menu
	menuErr  error
	table    *models.FoodFile
	tableErr error
}

func (s *stubStatusReader) LastMenu(ctx context.Context) (*models.Menu, error) {
	return s.menu, s.menuErr
}

func (s *stubStatusReader) LastTable(ctx context.Context) (*models.FoodFile, error) {
	return s.table, s.tableErr
}

type stubQueue struct {
	jobs []jobs.Job
}

func (q *stubQueue) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type botFixture struct {
	bot     *Bot
	client  *stubClient
	uploads *stubUploader
	index   *stubIndexMaintainer
	status  *stubStatusReader
	queue   *stubQueue
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	f := &botFixture{
		client:  &stubClient{},
		uploads: &stubUploader{},
		index:   &stubIndexMaintainer{},
		status:  &stubStatusReader{},
		queue:   &stubQueue{},
	}
	f.bot = New(f.client, f.uploads, f.index, f.status, f.queue, nil, Config{
		AllowedUsers: []string{"root", "alice"},
		MenuPageURL:  "https://example.com/menu",
		TablePageURL: "https://example.com/food",
	})
	return f
}

func commandMessage(user, cmd string) *tgbotapi.Message {
	text := "/" + cmd
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: 10, UserName: user},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}
}

func documentMessage(user, name string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 10, UserName: user},
		Document: &tgbotapi.Document{FileID: "file-1", FileName: name},
	}
}

func callbackUpdate(user, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{UserName: user},
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: 10}},
	}}
}

func keyboardOf(t *testing.T, msg tgbotapi.MessageConfig) tgbotapi.InlineKeyboardMarkup {
	t.Helper()
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "message carries an inline keyboard")
	return kb
}

func TestStartCommand(t *testing.T) {
	f := newBotFixture(t)

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("alice", cmdStart)})
	require.NoError(t, err)

	require.Len(t, f.client.sent, 1)
	assert.Equal(t, msgGreeting, f.client.sent[0].Text)

	kb := keyboardOf(t, f.client.sent[0])
	require.Len(t, kb.InlineKeyboard, 1)
	require.Len(t, kb.InlineKeyboard[0], 2)
	assert.Equal(t, cbMenuHint, *kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, cbTableHint, *kb.InlineKeyboard[0][1].CallbackData)
}

func TestStartCommandDenied(t *testing.T) {
	f := newBotFixture(t)

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("stranger", cmdStart)})
	require.NoError(t, err)

	assert.Equal(t, []string{msgGreetingDenied}, f.client.texts())
}

func TestDocumentUploadSuccess(t *testing.T) {
	f := newBotFixture(t)
	f.uploads.res = service.Result{Status: service.StatusSuccess, Kind: models.KindMenuFile}

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: documentMessage("alice", "menu.pdf")})
	require.NoError(t, err)

	require.Len(t, f.uploads.docs, 1)
	assert.Equal(t, "menu.pdf", f.uploads.docs[0].Name)
	assert.False(t, f.uploads.forces[0])

	assert.Equal(t, []string{msgUploadStarted, msgMenuUploaded}, f.client.texts())
	kb := keyboardOf(t, f.client.sent[1])
	assert.Equal(t, "https://example.com/menu", *kb.InlineKeyboard[0][0].URL)
}

func TestDocumentFromUnknownUserIgnored(t *testing.T) {
	f := newBotFixture(t)

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: documentMessage("stranger", "menu.pdf")})
	require.NoError(t, err)

	assert.Empty(t, f.uploads.docs)
	assert.Empty(t, f.client.sent)
}

func TestDocumentWrongType(t *testing.T) {
	f := newBotFixture(t)
	f.uploads.res = service.Result{Status: service.StatusWrongType, Kind: models.KindUnsupported}

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: documentMessage("alice", "notes.docx")})
	require.NoError(t, err)

	assert.Contains(t, f.client.texts(), msgWrongFileType)
}

func TestDocumentUploadError(t *testing.T) {
	f := newBotFixture(t)
	f.uploads.res = service.Result{
		Status:  service.StatusError,
		Kind:    models.KindMenuFile,
		Message: appErrors.ErrUploadFailed.Message,
	}

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: documentMessage("alice", "menu.pdf")})
	require.NoError(t, err)

	assert.Contains(t, f.client.texts(), appErrors.ErrUploadFailed.Message)
}

func TestPhotoUploadUsesLargestSize(t *testing.T) {
	f := newBotFixture(t)
	f.uploads.res = service.Result{Status: service.StatusSuccess, Kind: models.KindMenuPhoto}

	msg := &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 10, UserName: "alice"},
		Photo: []tgbotapi.PhotoSize{
			{FileID: "thumb"},
			{FileID: "original"},
		},
	}
	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: msg})
	require.NoError(t, err)

	assert.Equal(t, []string{"original"}, f.uploads.photoIDs)
	assert.Equal(t, []string{msgUploadStarted, msgMenuUploaded}, f.client.texts())
}

func TestTableAlreadyUploadedArmsReplace(t *testing.T) {
	f := newBotFixture(t)
	f.uploads.res = service.Result{Status: service.StatusAlreadyUploaded, Kind: models.KindTableFile}

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: documentMessage("alice", "report-sm.xlsx")})
	require.NoError(t, err)

	texts := f.client.texts()
	assert.Contains(t, texts, msgTableAlreadyUploaded)

	doc, ok := f.bot.pending.takeReplace(10)
	require.True(t, ok, "the replace confirmation is armed")
	assert.Equal(t, "report-sm.xlsx", doc.Name)
}

func TestMenuAlreadyUploadedNoPrompt(t *testing.T) {
	f := newBotFixture(t)
	f.uploads.res = service.Result{Status: service.StatusAlreadyUploaded, Kind: models.KindMenuFile}

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: documentMessage("alice", "menu.pdf")})
	require.NoError(t, err)

	assert.Contains(t, f.client.texts(), msgMenuAlreadyUploaded)
	_, ok := f.bot.pending.takeReplace(10)
	assert.False(t, ok, "menus never arm a replace confirmation")
}

func TestReplaceConfirmForcesSubmit(t *testing.T) {
	f := newBotFixture(t)
	f.uploads.res = service.Result{Status: service.StatusSuccess, Kind: models.KindTableFile}
	f.bot.pending.setReplace(10, models.Document{FileID: "file-1", Name: "report-sm.xlsx"})

	err := f.bot.handle(context.Background(), callbackUpdate("alice", cbReplaceYes))
	require.NoError(t, err)

	require.Len(t, f.uploads.docs, 1)
	assert.Equal(t, "report-sm.xlsx", f.uploads.docs[0].Name)
	assert.True(t, f.uploads.forces[0], "a confirmed replace skips the duplicate check")
	assert.Equal(t, 1, f.client.deletedPrompts())
	assert.Contains(t, f.client.texts(), msgTableUploaded)
}

func TestReplaceConfirmWithoutPending(t *testing.T) {
	f := newBotFixture(t)

	err := f.bot.handle(context.Background(), callbackUpdate("alice", cbReplaceYes))
	require.NoError(t, err)

	assert.Empty(t, f.uploads.docs)
	assert.Contains(t, f.client.texts(), msgNothingToConfirm)
}

func TestReplaceCancelClearsPending(t *testing.T) {
	f := newBotFixture(t)
	f.bot.pending.setReplace(10, models.Document{FileID: "file-1", Name: "report-sm.xlsx"})

	err := f.bot.handle(context.Background(), callbackUpdate("alice", cbReplaceNo))
	require.NoError(t, err)

	_, ok := f.bot.pending.takeReplace(10)
	assert.False(t, ok)
	assert.Empty(t, f.uploads.docs)
}

func TestDeleteLastPromptAndConfirm(t *testing.T) {
	f := newBotFixture(t)
	f.index.last = &models.FoodFile{Name: "report-sm.xlsx"}
	f.index.deleted = "report-sm.xlsx"

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("root", cmdDeleteLast)})
	require.NoError(t, err)
	assert.Contains(t, f.client.texts(), fmt.Sprintf(fmtDeleteQuestion, "report-sm.xlsx"))

	err = f.bot.handle(context.Background(), callbackUpdate("root", cbDeleteYes))
	require.NoError(t, err)

	assert.Equal(t, 1, f.index.deleteCalls)
	assert.Contains(t, f.client.texts(), fmt.Sprintf(fmtDeleteDone, "report-sm.xlsx"))
}

func TestDeleteLastNotPrivileged(t *testing.T) {
	f := newBotFixture(t)

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("alice", cmdDeleteLast)})
	require.NoError(t, err)

	assert.Equal(t, []string{msgNoPermissions}, f.client.texts())
	assert.Zero(t, f.index.deleteCalls)
}

func TestDeleteLastNothingStored(t *testing.T) {
	f := newBotFixture(t)

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("root", cmdDeleteLast)})
	require.NoError(t, err)

	assert.Contains(t, f.client.texts(), msgDeleteNotFound)

	// The guard is disarmed, so the command works again later.
	f.index.last = &models.FoodFile{Name: "report-sm.xlsx"}
	err = f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("root", cmdDeleteLast)})
	require.NoError(t, err)
	assert.Contains(t, f.client.texts(), fmt.Sprintf(fmtDeleteQuestion, "report-sm.xlsx"))
}

func TestDeleteConfirmWithoutPrompt(t *testing.T) {
	f := newBotFixture(t)

	err := f.bot.handle(context.Background(), callbackUpdate("root", cbDeleteYes))
	require.NoError(t, err)

	assert.Contains(t, f.client.texts(), msgNothingToConfirm)
	assert.Zero(t, f.index.deleteCalls)
}

func TestDeleteConfirmNotPrivileged(t *testing.T) {
	f := newBotFixture(t)
	f.bot.pending.scheduleDelete(10)

	err := f.bot.handle(context.Background(), callbackUpdate("alice", cbDeleteYes))
	require.NoError(t, err)

	assert.Contains(t, f.client.texts(), msgNoPermissions)
	assert.Zero(t, f.index.deleteCalls)
}

func TestDeleteCancelDisarms(t *testing.T) {
	f := newBotFixture(t)
	f.index.last = &models.FoodFile{Name: "report-sm.xlsx"}

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("root", cmdDeleteLast)})
	require.NoError(t, err)

	err = f.bot.handle(context.Background(), callbackUpdate("root", cbDeleteNo))
	require.NoError(t, err)

	assert.Zero(t, f.index.deleteCalls)
	assert.False(t, f.bot.pending.confirmDelete(10), "the confirmation is disarmed")
}

func TestStatusCommand(t *testing.T) {
	f := newBotFixture(t)
	f.status.menu = &models.Menu{Name: "menu.pdf", LastModificationDate: "02-05-2023 12:30:00"}
	f.status.table = &models.FoodFile{Name: "report-sm.xlsx", LastModificationDate: "2023-05-02T09:30:00"}

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("alice", cmdStatus)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		fmt.Sprintf(fmtStatusMenu, "menu.pdf", "02-05-2023 12:30:00"),
		fmt.Sprintf(fmtStatusTable, "report-sm.xlsx", "2023-05-02T09:30:00"),
	}, f.client.texts())
}

func TestStatusCommandEmptyIndex(t *testing.T) {
	f := newBotFixture(t)
	f.status.menu = &models.Menu{}

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("alice", cmdStatus)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		fmt.Sprintf(fmtStatusMenu, unknownValue, unknownValue),
		msgStatusTableFailed,
	}, f.client.texts())
}

func TestUpdateJSONCommand(t *testing.T) {
	f := newBotFixture(t)

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("root", cmdUpdateJSON)})
	require.NoError(t, err)

	assert.Equal(t, 1, f.index.refreshCalls)
	assert.Equal(t, []string{msgIndexRefreshed}, f.client.texts())
}

func TestUpdateJSONCommandFailure(t *testing.T) {
	f := newBotFixture(t)
	f.index.refreshErr = fmt.Errorf("unreachable")

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("root", cmdUpdateJSON)})
	require.NoError(t, err)

	assert.Equal(t, []string{msgIndexRefreshFailed}, f.client.texts())
}

func TestUpdateJSONCommandNotPrivileged(t *testing.T) {
	f := newBotFixture(t)

	err := f.bot.handle(context.Background(), tgbotapi.Update{Message: commandMessage("alice", cmdUpdateJSON)})
	require.NoError(t, err)

	assert.Zero(t, f.index.refreshCalls)
	assert.Equal(t, []string{msgNoPermissions}, f.client.texts())
}

func TestDispatchEnqueuesTypedJobs(t *testing.T) {
	f := newBotFixture(t)

	f.bot.dispatch(tgbotapi.Update{Message: documentMessage("alice", "menu.pdf")})
	f.bot.dispatch(callbackUpdate("alice", cbMenuHint))
	f.bot.dispatch(tgbotapi.Update{Message: commandMessage("alice", cmdStatus)})

	require.Len(t, f.queue.jobs, 3)
	assert.Equal(t, "document", f.queue.jobs[0].Type)
	assert.Equal(t, "callback", f.queue.jobs[1].Type)
	assert.Equal(t, "command", f.queue.jobs[2].Type)
	assert.NotEmpty(t, f.queue.jobs[0].ID)
}
