package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trade-journal/auth"
	"trade-journal/database"
	"trade-journal/journal"
	"trade-journal/market"
	"trade-journal/models"
	"trade-journal/storage"
	"trade-journal/templates"
)

const testPassword = "password123"

type fakeQuotes struct {
	quote market.Quote
	err   error
}

func (f *fakeQuotes) Latest(_ context.Context, symbol string) (market.Quote, error) {
	if f.err != nil {
		return market.Quote{}, f.err
	}
	q := f.quote
	q.Symbol = symbol
	return q, nil
}

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	store   *journal.Store
	issuer  *auth.Issuer
	refresh *auth.MemoryRefreshStore
	media   *storage.MediaStore
	quotes  *fakeQuotes
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	renderer, err := templates.New()
	require.NoError(t, err)

	env := &testEnv{
		db:      db,
		store:   journal.NewStore(db),
		issuer:  auth.NewIssuer("test-secret", time.Hour, 24*time.Hour),
		refresh: auth.NewMemoryRefreshStore(),
		media:   storage.NewMediaStore(t.TempDir(), "/media", 1<<10),
		quotes:  &fakeQuotes{},
	}

	h := New(Deps{
		Logger:       zap.NewNop(),
		Store:        env.store,
		Issuer:       env.issuer,
		Refresh:      env.refresh,
		Media:        env.media,
		Quotes:       env.quotes,
		ListDefaults: journal.DefaultListOptions(),
	})

	r := gin.New()
	r.HTMLRender = renderer
	h.Register(r)
	env.router = r
	return env
}

func (e *testEnv) createUser(t *testing.T, email string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{Email: email, Password: string(hashed)}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) createTrade(t *testing.T, userID uint, symbol string, status models.TradeStatus, day int, pnl string) models.Trade {
	t.Helper()
	tr := models.Trade{
		UserID:     userID,
		Symbol:     symbol,
		Status:     status,
		EntryDate:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		EntryPrice: decimal.RequireFromString("50"),
		Quantity:   decimal.RequireFromString("2"),
	}
	if pnl != "" {
		d := decimal.RequireFromString(pnl)
		tr.PnL = &d
	}
	require.NoError(t, e.db.Create(&tr).Error)
	return tr
}

// do sends req as userID; 0 sends it anonymously.
func (e *testEnv) do(t *testing.T, req *http.Request, userID uint) *httptest.ResponseRecorder {
	t.Helper()
	if userID != 0 {
		token, err := e.issuer.Access(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func jsonRequest(method, target, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
