package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	maildomain "mailflow-backend/internal/mail/domain"
	"mailflow-backend/internal/mail/dto"
	"mailflow-backend/internal/mail/usecase"
	"mailflow-backend/pkg/searchindex"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMailUsecase authorizes a single owner and is inert otherwise.
type stubMailUsecase struct {
	ownerID   string
	accountID string
}

func (s *stubMailUsecase) authorize(accountID, userID string) error {
	if accountID != s.accountID || userID != s.ownerID {
		return usecase.ErrAccountNotFound
	}
	return nil
}

func (s *stubMailUsecase) GetThreads(accountID, userID, tab string, done bool) ([]*maildomain.Thread, error) {
	return nil, s.authorize(accountID, userID)
}

func (s *stubMailUsecase) CountThreads(accountID, userID, tab string) (int64, error) {
	return 0, s.authorize(accountID, userID)
}

func (s *stubMailUsecase) GetThread(accountID, userID, threadID string) (*maildomain.Thread, error) {
	return nil, s.authorize(accountID, userID)
}

func (s *stubMailUsecase) SetThreadDone(accountID, userID, threadID string, done bool) error {
	return s.authorize(accountID, userID)
}

func (s *stubMailUsecase) GetSuggestions(accountID, userID string) ([]*maildomain.EmailAddress, error) {
	return nil, s.authorize(accountID, userID)
}

func (s *stubMailUsecase) GetReplyDetails(accountID, userID, threadID, replyType string) (*dto.ReplyDetails, error) {
	return nil, s.authorize(accountID, userID)
}

func (s *stubMailUsecase) SendEmail(ctx context.Context, accountID, userID string, req *dto.SendEmailRequest) (*dto.SendEmailResponse, error) {
	return nil, s.authorize(accountID, userID)
}

func (s *stubMailUsecase) Search(accountID, userID, term string) ([]searchindex.Hit, error) {
	return nil, s.authorize(accountID, userID)
}

func (s *stubMailUsecase) VectorSearch(ctx context.Context, accountID, userID, term string) ([]searchindex.Hit, error) {
	return nil, s.authorize(accountID, userID)
}

// stubSyncUsecase records invocations and returns scripted errors.
type stubSyncUsecase struct {
	initialErr     error
	incrementalErr error
	initialCalls   chan string
	syncCalls      chan string
}

func newStubSyncUsecase() *stubSyncUsecase {
	return &stubSyncUsecase{
		initialCalls: make(chan string, 1),
		syncCalls:    make(chan string, 1),
	}
}

func (s *stubSyncUsecase) PerformInitialSync(ctx context.Context, accountID string) error {
	s.initialCalls <- accountID
	return s.initialErr
}

func (s *stubSyncUsecase) SyncEmails(ctx context.Context, accountID string) error {
	s.syncCalls <- accountID
	return s.incrementalErr
}

func newSyncRouter(t *testing.T, sync *stubSyncUsecase) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewMailHandler(nil, &stubMailUsecase{ownerID: "user-1", accountID: "acct-1"}, sync)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", "user-1")
	})
	r.POST("/api/accounts/:accountId/initial-sync", handler.InitialSync)
	r.POST("/api/accounts/:accountId/sync", handler.TriggerSync)
	return r
}

func TestInitialSyncEndpointRunsSynchronously(t *testing.T) {
	sync := newStubSyncUsecase()
	r := newSyncRouter(t, sync)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/accounts/acct-1/initial-sync", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	select {
	case accountID := <-sync.initialCalls:
		assert.Equal(t, "acct-1", accountID)
	default:
		t.Fatal("initial sync was not invoked before the response was written")
	}
}

func TestInitialSyncEndpointSurfacesFailures(t *testing.T) {
	sync := newStubSyncUsecase()
	sync.initialErr = usecase.ErrReadinessTimeout
	r := newSyncRouter(t, sync)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/accounts/acct-1/initial-sync", nil))

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "readiness")
}

func TestInitialSyncEndpointChecksOwnership(t *testing.T) {
	sync := newStubSyncUsecase()
	r := newSyncRouter(t, sync)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/accounts/other-acct/initial-sync", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	select {
	case <-sync.initialCalls:
		t.Fatal("initial sync ran for a foreign account")
	default:
	}
}

func TestTriggerSyncIsFireAndForget(t *testing.T) {
	sync := newStubSyncUsecase()
	r := newSyncRouter(t, sync)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/accounts/acct-1/sync", nil))

	require.Equal(t, http.StatusAccepted, w.Code)

	// The cycle still runs, just detached from the request.
	select {
	case accountID := <-sync.syncCalls:
		assert.Equal(t, "acct-1", accountID)
	case <-time.After(2 * time.Second):
		t.Fatal("background sync never started")
	}
}
