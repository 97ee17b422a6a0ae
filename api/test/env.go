package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/marketloop/shop/api"
	"github.com/marketloop/shop/api/background"
	"github.com/marketloop/shop/config"
	"github.com/marketloop/shop/core/auth"
	"github.com/marketloop/shop/core/claims"
	"github.com/marketloop/shop/core/item"
	"github.com/marketloop/shop/core/user"
	"github.com/marketloop/shop/database"
	"github.com/marketloop/shop/payment"
	"github.com/marketloop/shop/rate"
	"github.com/marketloop/shop/validate"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
)

// TestEnv boots the whole API against a disposable postgres container
// and a fake stripe backend. Tests are skipped when no docker daemon is
// reachable.
type TestEnv struct {
	DB     *sqlx.DB
	Server *httptest.Server
	URL    string
	Stripe *stripeBackend
	Mailer *mailCapture

	Admin     user.User
	AdminPass string
	User      user.User
	UserPass  string

	secret []byte
	client *http.Client
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("skipping %s: cannot build docker pool: %v", name, err)
	}

	if err := pool.Client.Ping(); err != nil {
		t.Skipf("skipping %s: docker not available: %v", name, err)
	}

	res, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=shop",
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	t.Cleanup(func() { pool.Purge(res) })
	res.Expire(600)

	cfg := config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       res.GetHostPort("5432/tcp"),
		Name:       "shop",
		DisableTLS: true,
	}

	var db *sqlx.DB
	if err := pool.Retry(func() error {
		db, err = database.Open(cfg)
		return err
	}); err != nil {
		return nil, fmt.Errorf("connecting to postgres container: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	strp := &stripeBackend{}
	strpServer := httptest.NewServer(strp.handler())
	t.Cleanup(strpServer.Close)

	mailer := &mailCapture{}
	secret := []byte("test-session-secret")

	limiter := rate.NewLimiter(1000, 100, 1000)
	t.Cleanup(limiter.Stop)

	bg := background.New(log)

	mux := api.APIMux(api.APIConfig{
		Log:             log,
		DB:              db,
		SessionSecret:   secret,
		SessionLifetime: time.Hour,
		Mailer:          mailer,
		TokenTimeout:    time.Hour,
		Background:      bg,
		Gateway:         payment.NewStripe(stripeTestClient(strpServer)),
		Currency:        "usd",
		ChargeTimeout:   5 * time.Second,
		Providers:       map[string]auth.Provider{},
		AuthLimiter:     limiter,
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}

	env := &TestEnv{
		DB:        db,
		Server:    srv,
		URL:       srv.URL,
		Stripe:    strp,
		Mailer:    mailer,
		AdminPass: "admin-password",
		UserPass:  "user-password",
		secret:    secret,
		client:    &http.Client{Jar: jar},
	}

	env.Admin, err = seedUser(db, "Admin", "admin@shop.test", env.AdminPass, []string{claims.PermUser, claims.PermAdmin})
	if err != nil {
		return nil, err
	}

	env.User, err = seedUser(db, "Customer", "customer@shop.test", env.UserPass, []string{claims.PermUser})
	if err != nil {
		return nil, err
	}

	return env, nil
}

func (e *TestEnv) Client() *http.Client { return e.client }

func (e *TestEnv) Login(email string, pass string) error {
	body, _ := json.Marshal(map[string]string{"email": email, "password": pass})

	w, err := e.client.Post(e.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login as %s: status code %s", email, w.Status)
	}
	return nil
}

func (e *TestEnv) Logout() error {
	w, err := e.client.Post(e.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: status code %s", w.Status)
	}
	return nil
}

func seedUser(db *sqlx.DB, name string, email string, pass string, perms []string) (user.User, error) {
	hash, err := auth.HashPassword(pass)
	if err != nil {
		return user.User{}, err
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           validate.GenerateID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Permissions:  perms,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := user.Create(context.Background(), db, u); err != nil {
		return user.User{}, fmt.Errorf("seeding user %s: %w", email, err)
	}

	return u, nil
}

func seedItem(env *TestEnv, title string, price int) (item.Item, error) {
	now := time.Now().UTC()
	it := item.Item{
		ID:          validate.GenerateID(),
		UserID:      env.Admin.ID,
		Title:       title,
		Description: "a test item",
		Price:       price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := item.Create(context.Background(), env.DB, it); err != nil {
		return item.Item{}, fmt.Errorf("seeding item %s: %w", title, err)
	}

	return it, nil
}

// mailCapture records recovery mails instead of sending them.
type mailCapture struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *mailCapture) SendRecovery(to string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = make(map[string]string)
	}
	m.tokens[to] = token
	return nil
}

// WaitToken polls for the background mail dispatch to land.
func (m *mailCapture) WaitToken(to string, timeout time.Duration) (string, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		tok, ok := m.tokens[to]
		m.mu.Unlock()
		if ok {
			return tok, true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return "", false
}

func (m *mailCapture) Forget(to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, to)
}
