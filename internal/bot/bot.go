package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xhrome/foodbot/internal/models"
	"github.com/xhrome/foodbot/internal/service"
	"github.com/xhrome/foodbot/pkg/jobs"
)

type telegramClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type uploader interface {
	Submit(ctx context.Context, doc models.Document, force bool, started func()) service.Result
	SubmitPhoto(ctx context.Context, fileID string, started func()) service.Result
}

type indexMaintainer interface {
	LastStoredTable(ctx context.Context) (*models.FoodFile, error)
	DeleteLastTable(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
}

type statusReader interface {
	LastMenu(ctx context.Context) (*models.Menu, error)
	LastTable(ctx context.Context) (*models.FoodFile, error)
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// Config carries the allowlist and the public page URLs linked from
// success messages. The first allowed user is the privileged one.
type Config struct {
	AllowedUsers []string
	MenuPageURL  string
	TablePageURL string
}

// Bot wires Telegram updates to the upload, index and status services. Each
// update is handled as one job on the shared queue so the receive loop never
// blocks on a slow remote operation.
type Bot struct {
	client  telegramClient
	uploads uploader
	index   indexMaintainer
	status  statusReader
	queue   jobQueue
	pending *pendingActions
	logger  *zap.Logger
	cfg     Config

	allowed    map[string]struct{}
	privileged string
}

// New constructs the bot.
func New(client telegramClient, uploads uploader, index indexMaintainer, status statusReader, queue jobQueue, logger *zap.Logger, cfg Config) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[string]struct{}, len(cfg.AllowedUsers))
	for _, u := range cfg.AllowedUsers {
		allowed[u] = struct{}{}
	}
	privileged := ""
	if len(cfg.AllowedUsers) > 0 {
		privileged = cfg.AllowedUsers[0]
	}
	return &Bot{
		client:     client,
		uploads:    uploads,
		index:      index,
		status:     status,
		queue:      queue,
		pending:    newPendingActions(),
		logger:     logger,
		cfg:        cfg,
		allowed:    allowed,
		privileged: privileged,
	}
}

// Run consumes updates until ctx is cancelled or the channel closes.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(upd)
		}
	}
}

func (b *Bot) dispatch(upd tgbotapi.Update) {
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: updateType(upd),
		Run: func(ctx context.Context) error {
			return b.handle(ctx, upd)
		},
	}
	if err := b.queue.Enqueue(job); err != nil {
		b.logger.Error("could not enqueue update", zap.String("type", job.Type), zap.Error(err))
	}
}

func (b *Bot) isAllowed(username string) bool {
	if username == "" {
		return false
	}
	_, ok := b.allowed[username]
	return ok
}

func (b *Bot) isPrivileged(username string) bool {
	return username != "" && username == b.privileged
}

func updateType(upd tgbotapi.Update) string {
	switch {
	case upd.CallbackQuery != nil:
		return "callback"
	case upd.Message != nil && upd.Message.IsCommand():
		return "command"
	case upd.Message != nil && upd.Message.Document != nil:
		return "document"
	case upd.Message != nil && len(upd.Message.Photo) > 0:
		return "photo"
	default:
		return "other"
	}
}
