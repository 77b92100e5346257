package routes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Gin_postgres_redis_tickets/app"
	"Gin_postgres_redis_tickets/cache"
	"Gin_postgres_redis_tickets/controllers"
	"Gin_postgres_redis_tickets/db"
	"Gin_postgres_redis_tickets/db/dbtest"
	"Gin_postgres_redis_tickets/invitation"
	"Gin_postgres_redis_tickets/models"
	"Gin_postgres_redis_tickets/notify"
	"Gin_postgres_redis_tickets/qr"
	"Gin_postgres_redis_tickets/shortlink"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mailbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *mailbox) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type harness struct {
	r        *gin.Engine
	repo     *db.Repo
	mail     *mailbox
	failing  atomic.Bool
	shortens atomic.Int32
}

// 校验时间固定为 2024-10-10T09:00:00Z
var now = time.Date(2024, 10, 10, 9, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	gin.SetMode(gin.TestMode)
	h := &harness{mail: &mailbox{}}

	short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.shortens.Add(1)
		if h.failing.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		b, _ := io.ReadAll(r.Body)
		token := path.Base(string(b))
		_, _ = w.Write([]byte(`{"hash":"` + token + `","short_url":"https://s.example/` + token + `","long_url":"` + string(b) + `"}`))
	}))
	t.Cleanup(short.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.repo = db.NewRepo(dbtest.Open(t))
	qrc := cache.NewQRCache(nil, qr.NewEncoder(128), time.Hour, logger)
	svc := invitation.NewService(
		h.repo,
		invitation.NewGenerator(shortlink.New(short.URL, "key", "https://tickets.example/api/validations", time.Second), 4),
		notify.NewDispatcher(h.mail, qrc, "Clinic", 128, 2, logger),
		invitation.Options{MaxBatch: 20, GenerateTimeout: 5 * time.Second},
		logger,
	)
	s := &controllers.Srv{
		Repo:        h.repo,
		Invitations: svc,
		Validator:   invitation.NewValidator(h.repo, func() time.Time { return now }),
		QR:          qrc,
		QRSize:      128,
		Log:         logger,
	}
	h.r = app.NewRouter("http://localhost:5173", logger)
	Register(h.r, s)
	return h
}

func (h *harness) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func (h *harness) createAppointment(t *testing.T, body string) string {
	t.Helper()
	w := h.do(t, http.MethodPost, "/api/appointment", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var id string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &id))
	return id
}

func (h *harness) invite(t *testing.T, apptID, query, body string) []models.NewInvitation {
	t.Helper()
	w := h.do(t, http.MethodPost, "/api/appointment/"+apptID+"/invitation"+query, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out []models.NewInvitation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

const offlineBody = `{"title":"Visit","description":"first","format":"OFFLINE","address":"123 Main St","date":"2024-10-10T10:00:00","duration":3600}`
const onlineBody = `{"title":"Call","description":"remote","format":"ONLINE","link":"https://meet.example/room","date":"2024-10-10T10:00:00","duration":3600}`

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestOfflineScenario(t *testing.T) {
	h := newHarness(t)
	apptID := h.createAppointment(t, offlineBody)

	invs := h.invite(t, apptID, "", "")
	require.Len(t, invs, 1)
	inv := invs[0]
	assert.Equal(t, apptID, inv.AppointmentID)
	assert.Equal(t, "https://s.example/"+inv.ID, inv.ShortURL)

	w := h.do(t, http.MethodGet, "/api/invitation/"+inv.ID+"/qr", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "data:image/png;base64,iVBORw0KGgo")

	w = h.do(t, http.MethodGet, "/api/validations/"+inv.ID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var snap models.AppointmentWithInvitation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, inv.ID, snap.ID)
	assert.Equal(t, models.FormatOffline, snap.Format)
	require.NotNil(t, snap.Address)
	assert.Equal(t, "123 Main St", *snap.Address)
	assert.Equal(t, time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC), snap.Date.Time)

	w = h.do(t, http.MethodGet, "/api/validations/"+inv.ID, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, invitation.MsgAlreadyUsed, errorOf(t, w))
}

func TestOnlineRedirect(t *testing.T) {
	h := newHarness(t)
	apptID := h.createAppointment(t, onlineBody)
	inv := h.invite(t, apptID, "?count=1", "")[0]

	w := h.do(t, http.MethodGet, "/api/validations/"+inv.ID, "")
	assert.Equal(t, http.StatusPermanentRedirect, w.Code)
	assert.Equal(t, "https://meet.example/room", w.Header().Get("Location"))
}

func TestOutdatedInvitation(t *testing.T) {
	h := newHarness(t)
	apptID := h.createAppointment(t, strings.Replace(offlineBody, "2024-10-10T10:00:00", "2024-10-08T23:59:59", 1))
	inv := h.invite(t, apptID, "", "")[0]

	w := h.do(t, http.MethodGet, "/api/validations/"+inv.ID, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, invitation.MsgOutdated, errorOf(t, w))
}

func TestValidationErrors(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/api/validations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodGet, "/api/validations/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvitationsWithEmails(t *testing.T) {
	h := newHarness(t)
	apptID := h.createAppointment(t, offlineBody)

	emails := []string{"a@x.example", "b@x.example"}
	invs := h.invite(t, apptID, "?count=7", `{"email":["a@x.example","b@x.example"]}`)
	require.Len(t, invs, 2)

	h.mail.mu.Lock()
	defer h.mail.mu.Unlock()
	require.Len(t, h.mail.sent, 2)
	byTo := map[string]notify.Message{}
	for _, m := range h.mail.sent {
		byTo[m.To] = m
	}
	for i, e := range emails {
		assert.Equal(t, invs[i].ShortURL, byTo[e].Link)
		assert.Contains(t, byTo[e].HTML, "data:image/png;base64,")
	}
}

func TestInvitationRequestValidation(t *testing.T) {
	h := newHarness(t)
	apptID := h.createAppointment(t, offlineBody)

	w := h.do(t, http.MethodPost, "/api/appointment/"+apptID+"/invitation?count=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/appointment/"+apptID+"/invitation?count=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/appointment/"+apptID+"/invitation", `{"email":["not-an-email"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/appointment/"+uuid.NewString()+"/invitation", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Zero(t, h.shortens.Load())
}

func TestShortenerDownStoresNothing(t *testing.T) {
	h := newHarness(t)
	apptID := h.createAppointment(t, offlineBody)
	h.failing.Store(true)

	w := h.do(t, http.MethodPost, "/api/appointment/"+apptID+"/invitation?count=3", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = h.do(t, http.MethodGet, "/api/appointment/"+apptID+"/invitation", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAppointmentEndpoints(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/appointment", `{"title":"x","description":"y","format":"ONLINE","date":"2024-10-10T10:00:00","duration":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "online without link")

	apptID := h.createAppointment(t, offlineBody)

	w = h.do(t, http.MethodGet, "/api/appointment/"+apptID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var a models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &a))
	assert.Equal(t, "Visit", a.Title)
	assert.Contains(t, w.Body.String(), `"date":"2024-10-10T10:00:00"`)

	w = h.do(t, http.MethodGet, "/api/appointment", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	inv := h.invite(t, apptID, "?count=2", "")[0]
	w = h.do(t, http.MethodGet, "/api/invitation/"+inv.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"used":false`)

	w = h.do(t, http.MethodGet, "/api/invitation/"+inv.ID+"/qr?format=png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = h.do(t, http.MethodDelete, "/api/appointment/"+apptID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Body.String())

	w = h.do(t, http.MethodDelete, "/api/appointment/"+apptID, "")
	assert.Equal(t, "false", w.Body.String())

	w = h.do(t, http.MethodGet, "/api/appointment/"+apptID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = h.do(t, http.MethodGet, "/api/invitation/"+inv.ID, "")
	assert.Equal(t, "null", w.Body.String())

	w = h.do(t, http.MethodGet, "/api/invitation/"+inv.ID+"/qr", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}
