package services

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ttychat/internal/logging"
	"github.com/dmitrijs2005/ttychat/internal/netx"
	"github.com/dmitrijs2005/ttychat/internal/server/repositories/repomanager"
)

// PushPayload is the JSON body delivered to push endpoints.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NotificationService delivers new-message pushes to every endpoint
// registered by sessions other than the sender's.
type NotificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	client      *http.Client
	timeout     time.Duration
	logger      logging.Logger
}

func NewNotificationService(db *sql.DB, m repomanager.RepositoryManager, client *http.Client, timeout time.Duration, l logging.Logger) *NotificationService {
	if client == nil {
		client = &http.Client{}
	}
	return &NotificationService{
		db:          db,
		repomanager: m,
		client:      client,
		timeout:     timeout,
		logger:      l.With("module", "notifications"),
	}
}

func (s *NotificationService) Register(ctx context.Context, sessionID, url string) (string, error) {
	e, err := s.repomanager.PushEndpoints(s.db).Create(ctx, sessionID, url)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

func (s *NotificationService) Unregister(ctx context.Context, id string) error {
	return s.repomanager.PushEndpoints(s.db).Delete(ctx, id)
}

// Notify returns the number of endpoints that accepted the push. Endpoints
// answering 404 or 410 are unregistered. Other delivery failures are
// logged and skipped.
func (s *NotificationService) Notify(ctx context.Context, senderSessionID, author, body string) (int, error) {
	repo := s.repomanager.PushEndpoints(s.db)

	endpoints, err := repo.ListExcept(ctx, senderSessionID)
	if err != nil {
		return 0, err
	}

	payload := PushPayload{Title: "New message from " + author, Body: body}

	delivered := 0
	for _, e := range endpoints {
		status, err := s.deliver(ctx, e.URL, payload)
		if err != nil {
			s.logger.Warn(ctx, "push delivery failed", "endpoint", e.ID, "error", err)
			continue
		}
		switch {
		case netx.IsSuccess(status):
			delivered++
		case netx.IsGone(status):
			s.logger.Info(ctx, "removing expired push endpoint", "endpoint", e.ID, "status", status)
			if err := repo.Delete(ctx, e.ID); err != nil {
				s.logger.Error(ctx, "error removing push endpoint", "endpoint", e.ID, "error", err)
			}
		default:
			s.logger.Warn(ctx, "push endpoint rejected delivery", "endpoint", e.ID, "status", status)
		}
	}
	return delivered, nil
}

func (s *NotificationService) deliver(ctx context.Context, url string, payload PushPayload) (int, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return netx.PostJSON(ctx, s.client, url, payload)
}
