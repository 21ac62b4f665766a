package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/mdmehedyhasanmiraz/wellmart-backend/internal/api/http"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/api/http/handlers"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/auth"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/config"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/events"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/observability"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/provider"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/repository"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/service"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) GetByEmailOrPhone(_ context.Context, identifier string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == identifier || (user.Phone != "" && user.Phone == identifier) {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) GetRoleByID(_ context.Context, id string) (domain.Role, error) {
	if user, ok := r.users[id]; ok {
		return user.Role, nil
	}
	return "", domain.ErrRoleNotFound
}

type stubStateStore struct {
	records map[string]repository.OAuthState
}

func (s *stubStateStore) Save(_ context.Context, state string, record repository.OAuthState, _ time.Duration) error {
	s.records[state] = record
	return nil
}

func (s *stubStateStore) Consume(_ context.Context, state string) (repository.OAuthState, error) {
	record, ok := s.records[state]
	if !ok {
		return repository.OAuthState{}, repository.ErrStateNotFound
	}
	delete(s.records, state)
	return record, nil
}

type stubProvider struct {
	identity *domain.Identity
	err      error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) AuthCodeURL(state, _ string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (p *stubProvider) Exchange(_ context.Context, _, _ string) (*domain.Identity, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.identity == nil {
		return nil, nil
	}
	identity := *p.identity
	return &identity, nil
}

func (p *stubProvider) CurrentUser(_ context.Context, _ string) (*domain.Identity, error) {
	return p.Exchange(context.Background(), "", "")
}

type stubCompanyRepo struct {
	companies map[string]*domain.Company
}

func (r *stubCompanyRepo) GetByID(_ context.Context, id string) (*domain.Company, error) {
	if company, ok := r.companies[id]; ok {
		return company, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *stubCompanyRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.companies[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.companies, id)
	return nil
}

type testEnv struct {
	app       *fiber.App
	svc       *service.AuthService
	users     *stubUserRepo
	companies *stubCompanyRepo
	states    *stubStateStore
}

func newTestEnv(t *testing.T, idp provider.IdentityProvider, users ...*domain.User) *testEnv {
	t.Helper()

	userRepo := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		userRepo.users[u.ID] = u
	}
	companyRepo := &stubCompanyRepo{companies: map[string]*domain.Company{
		"c1": {ID: "c1", Name: "Acme Pharma", Slug: "acme-pharma"},
	}}
	states := &stubStateStore{records: make(map[string]repository.OAuthState)}

	cfg := config.Config{
		Auth: config.AuthConfig{TokenSecret: "test-secret", TokenTTLMinutes: 60, BcryptCost: 4},
		SMS:  config.SMSConfig{},
	}
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	svc := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:   userRepo,
		StateStore: states,
		Providers: map[service.Flow]provider.IdentityProvider{
			service.FlowGeneral: idp,
			service.FlowAdmin:   idp,
		},
		Dispatcher: events.NewInMemoryDispatcher(),
		Metrics:    metrics,
		Logger:     logger,
	})

	carrier := auth.NewSessionCarrier(true)
	middleware := auth.NewMiddleware(svc.TokenManager(), carrier, userRepo, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(nil, nil),
		Auth:           handlers.NewAuthHandler(svc, carrier, userRepo, logger),
		Admin:          handlers.NewAdminHandler(companyRepo, service.NewSMSService(cfg.SMS)),
		AuthMiddleware: middleware,
	})

	return &testEnv{app: app, svc: svc, users: userRepo, companies: companyRepo, states: states}
}

func (e *testEnv) credentialFor(t *testing.T, user *domain.User) string {
	t.Helper()
	token, _, err := e.svc.TokenManager().Issue(domain.IdentityFromUser(user))
	require.NoError(t, err)
	return token
}

func adminUser() *domain.User {
	return &domain.User{ID: "admin-1", Email: "admin@example.com", Role: domain.RoleAdmin}
}

func customerUser() *domain.User {
	return &domain.User{ID: "cust-1", Email: "customer@example.com", Role: domain.RoleCustomer}
}

func TestLogout_AlwaysSucceeds(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	resp, err := env.app.Test(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success         bool `json:"success"`
		SignOutProvider bool `json:"sign_out_provider"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.True(t, body.SignOutProvider)

	// the response must clear the session cookie
	var cleared bool
	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.SessionCookieName {
			cleared = true
			require.Empty(t, cookie.Value)
			require.True(t, cookie.Expires.Before(time.Now()))
		}
	}
	require.True(t, cleared)
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	hash, err := auth.HashPassword("supersafe", 4)
	require.NoError(t, err)
	user := customerUser()
	user.PasswordHash = hash
	env := newTestEnv(t, &stubProvider{}, user)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"identifier":"customer@example.com","password":"supersafe"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var found bool
	for _, cookie := range resp.Cookies() {
		if cookie.Name == auth.SessionCookieName {
			found = true
			require.NotEmpty(t, cookie.Value)
			require.True(t, cookie.HttpOnly)
		}
	}
	require.True(t, found)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"identifier":"nobody@example.com","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_RequiresCredential(t *testing.T) {
	env := newTestEnv(t, &stubProvider{}, customerUser())

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_ReturnsFreshRole(t *testing.T) {
	user := customerUser()
	env := newTestEnv(t, &stubProvider{}, user)
	token := env.credentialFor(t, user)

	// promote the account after the credential was minted: the response must
	// carry the record-store role, not the stale claim
	env.users.users[user.ID].Role = domain.RoleManager

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Role domain.Role `json:"role"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, domain.RoleManager, body.Data.Role)
}

func TestAdminAPI_Unauthorized(t *testing.T) {
	env := newTestEnv(t, &stubProvider{}, adminUser())

	resp, err := env.app.Test(httptest.NewRequest(http.MethodDelete, "/api/admin/companies/c1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminAPI_ForbiddenForCustomer(t *testing.T) {
	customer := customerUser()
	env := newTestEnv(t, &stubProvider{}, customer)
	token := env.credentialFor(t, customer)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/companies/c1", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// the record survived
	_, ok := env.companies.companies["c1"]
	require.True(t, ok)
}

func TestAdminAPI_RoleClaimIsNotTrusted(t *testing.T) {
	customer := customerUser()
	env := newTestEnv(t, &stubProvider{}, customer)

	// forge-by-stale-claim: credential says admin, record store says customer
	forged := *customer
	forged.Role = domain.RoleAdmin
	token := env.credentialFor(t, &forged)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/companies/c1", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminAPI_DeleteCompany(t *testing.T) {
	admin := adminUser()
	env := newTestEnv(t, &stubProvider{}, admin)
	token := env.credentialFor(t, admin)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/companies/c1", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, ok := env.companies.companies["c1"]
	require.False(t, ok)
}

func TestAdminAPI_DeleteMissingCompany(t *testing.T) {
	admin := adminUser()
	env := newTestEnv(t, &stubProvider{}, admin)
	token := env.credentialFor(t, admin)

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/companies/ghost", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCallback_RedirectsPerOutcome(t *testing.T) {
	t.Run("general authenticated", func(t *testing.T) {
		user := customerUser()
		env := newTestEnv(t, &stubProvider{identity: &domain.Identity{ID: user.ID, Email: user.Email}}, user)
		require.NoError(t, env.states.Save(context.Background(), "s1",
			repository.OAuthState{Nonce: "n", Flow: string(service.FlowGeneral)}, time.Minute))

		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/auth/callback?code=ok&state=s1", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusFound, resp.StatusCode)
		require.Equal(t, auth.PathDashboard, resp.Header.Get("Location"))

		var found bool
		for _, cookie := range resp.Cookies() {
			if cookie.Name == auth.SessionCookieName && cookie.Value != "" {
				found = true
			}
		}
		require.True(t, found)
	})

	t.Run("general provider error", func(t *testing.T) {
		env := newTestEnv(t, &stubProvider{err: errors.New("boom")})
		require.NoError(t, env.states.Save(context.Background(), "s1",
			repository.OAuthState{Nonce: "n", Flow: string(service.FlowGeneral)}, time.Minute))

		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/auth/callback?code=ok&state=s1", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusFound, resp.StatusCode)
		require.Equal(t, auth.PathLogin, resp.Header.Get("Location"))
	})

	t.Run("admin no user", func(t *testing.T) {
		env := newTestEnv(t, &stubProvider{})
		require.NoError(t, env.states.Save(context.Background(), "s2",
			repository.OAuthState{Nonce: "n", Flow: string(service.FlowAdmin)}, time.Minute))

		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/admin-login/callback?code=ok&state=s2", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusFound, resp.StatusCode)
		require.Equal(t, auth.PathAdminLogin, resp.Header.Get("Location"))
	})
}

func TestBeginLogin_RedirectsToProvider(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Location"), "https://idp.example.com/authorize?state=")
}

func TestGate_Endpoint(t *testing.T) {
	t.Run("anonymous dashboard", func(t *testing.T) {
		env := newTestEnv(t, &stubProvider{})
		resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/auth/gate?surface=dashboard", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Data struct {
				Allow    bool   `json:"allow"`
				Redirect string `json:"redirect"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.False(t, body.Data.Allow)
		require.Equal(t, auth.PathLogin, body.Data.Redirect)
	})

	t.Run("customer on admin console", func(t *testing.T) {
		customer := customerUser()
		env := newTestEnv(t, &stubProvider{}, customer)
		token := env.credentialFor(t, customer)

		req := httptest.NewRequest(http.MethodGet, "/api/auth/gate?surface=admin_console", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
		resp, err := env.app.Test(req)
		require.NoError(t, err)

		var body struct {
			Data struct {
				Allow    bool   `json:"allow"`
				Redirect string `json:"redirect"`
			} `json:"data"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.False(t, body.Data.Allow)
		require.Equal(t, auth.PathDashboard, body.Data.Redirect)
	})
}
