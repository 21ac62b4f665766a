package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/auth"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/config"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/events"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/observability"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/provider"
	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/repository"
)

// ErrInvalidCredentials signals a wrong identifier or password on the local
// login path.
var ErrInvalidCredentials = errors.New("service: invalid credentials")

// Flow distinguishes the general storefront sign-in from the admin sign-in.
// The two flows share machinery but have distinct destinations on every
// outcome.
type Flow string

const (
	FlowGeneral Flow = "general"
	FlowAdmin   Flow = "admin"
)

// ReconcileState is a terminal state of the callback reconciliation machine.
type ReconcileState string

const (
	StateAuthenticated   ReconcileState = "authenticated"
	StateUnauthenticated ReconcileState = "unauthenticated"
	StateProviderFailed  ReconcileState = "provider_failed"
)

// ReconcileResult is the navigation decision produced by one callback visit.
// Token is non-empty only when a session should be attached.
type ReconcileResult struct {
	State     ReconcileState
	Redirect  string
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates both identity paths: the delegated OAuth handshake
// and the locally issued credential login.
type AuthService struct {
	users      repository.UserRepository
	states     repository.OAuthStateStore
	providers  map[Flow]provider.IdentityProvider
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	bcryptCost int
	stateTTL   time.Duration
}

// AuthDependencies encapsulates collaborator requirements for the service.
// Each flow carries its own provider instance because the two callback
// endpoints register distinct redirect URLs with the provider.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	StateStore repository.OAuthStateStore
	Providers  map[Flow]provider.IdentityProvider
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		states:     deps.StateStore,
		providers:  deps.Providers,
		tokens:     auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTLMinutes),
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
		stateTTL:   cfg.Provider.StateTTL(),
	}
}

// BeginOAuth starts a handshake for the flow: it records single-use state
// and returns the provider URL to redirect the visitor to.
func (s *AuthService) BeginOAuth(ctx context.Context, flow Flow) (string, error) {
	idp, ok := s.providers[flow]
	if !ok {
		return "", errors.New("service: no provider for flow")
	}

	state, err := provider.RandomToken(32)
	if err != nil {
		return "", err
	}
	nonce, err := provider.RandomToken(32)
	if err != nil {
		return "", err
	}

	record := repository.OAuthState{Nonce: nonce, Flow: string(flow)}
	if err := s.states.Save(ctx, state, record, s.stateTTL); err != nil {
		return "", err
	}

	return idp.AuthCodeURL(state, nonce), nil
}

// CallbackInput carries what the provider's redirect handed back: either an
// authorization code plus handshake state, or a provider-issued access token
// for an already-established provider session.
type CallbackInput struct {
	Code        string
	State       string
	AccessToken string
}

// Reconcile runs the post-callback state machine exactly once per visit.
// Every input, however hostile, lands in one of the three terminal states
// and a navigation decision; nothing propagates as a fault.
func (s *AuthService) Reconcile(ctx context.Context, flow Flow, in CallbackInput) ReconcileResult {
	loginTarget := auth.PathLogin
	homeTarget := auth.PathDashboard
	if flow == FlowAdmin {
		loginTarget = auth.PathAdminLogin
		homeTarget = auth.PathAdmin
	}

	identity, result, done := s.establishIdentity(ctx, flow, in, loginTarget)
	if done {
		return result
	}
	// an assertion without a subject or email cannot back a session or an
	// account record; reject it before any lookup or provisioning runs
	if identity.ID == "" || identity.Email == "" {
		s.logger.Warn("identity assertion incomplete", zap.String("flow", string(flow)))
		return s.finish(ctx, flow, ReconcileResult{State: StateProviderFailed, Redirect: loginTarget})
	}

	user, err := s.lookupAccount(ctx, identity)
	switch {
	case err == nil:
		identity.Role = user.Role
	case errors.Is(err, domain.ErrRoleNotFound):
		if flow == FlowAdmin {
			// authenticated but unprovisioned identities never get an
			// admin-flow session
			s.logger.Warn("admin callback for unprovisioned identity",
				zap.String("subject", identity.ID))
			return s.finish(ctx, flow, ReconcileResult{State: StateAuthenticated, Redirect: loginTarget})
		}
		user, err = s.provision(ctx, identity)
		if err != nil {
			s.logger.Error("account provisioning failed", zap.Error(err))
			return s.finish(ctx, flow, ReconcileResult{State: StateProviderFailed, Redirect: loginTarget})
		}
		identity.Role = user.Role
	default:
		s.logger.Error("account lookup failed", zap.Error(err))
		return s.finish(ctx, flow, ReconcileResult{State: StateProviderFailed, Redirect: loginTarget})
	}

	token, expiresAt, err := s.tokens.Issue(*identity)
	if err != nil {
		s.logger.Error("credential issue failed", zap.Error(err))
		return s.finish(ctx, flow, ReconcileResult{State: StateProviderFailed, Redirect: loginTarget})
	}

	// identity is established here; authorization is re-checked by the
	// destination itself
	return s.finish(ctx, flow, ReconcileResult{
		State:     StateAuthenticated,
		Redirect:  homeTarget,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// establishIdentity resolves who, if anyone, the callback belongs to. A code
// goes through the single-use state check and the token exchange; a bare
// access token is introspected against the provider directly. When done is
// true the reconciliation already reached a terminal state.
func (s *AuthService) establishIdentity(ctx context.Context, flow Flow, in CallbackInput, loginTarget string) (*domain.Identity, ReconcileResult, bool) {
	fail := func() (*domain.Identity, ReconcileResult, bool) {
		return nil, s.finish(ctx, flow, ReconcileResult{State: StateProviderFailed, Redirect: loginTarget}), true
	}
	anonymous := func() (*domain.Identity, ReconcileResult, bool) {
		return nil, s.finish(ctx, flow, ReconcileResult{State: StateUnauthenticated, Redirect: loginTarget}), true
	}

	idp, ok := s.providers[flow]
	if !ok {
		s.logger.Error("no identity provider for flow", zap.String("flow", string(flow)))
		return fail()
	}

	switch {
	case in.Code != "" || in.State != "":
		record, err := s.states.Consume(ctx, in.State)
		if err != nil {
			s.logger.Warn("oauth state rejected",
				zap.String("flow", string(flow)),
				zap.Error(err),
			)
			return fail()
		}
		if record.Flow != string(flow) {
			s.logger.Warn("oauth state flow mismatch", zap.String("flow", string(flow)))
			return fail()
		}

		identity, err := idp.Exchange(ctx, in.Code, record.Nonce)
		if err != nil {
			// transient/backend fault: same navigation as an anonymous
			// visitor, but logged so the two remain distinguishable
			s.logger.Warn("identity provider failed",
				zap.String("flow", string(flow)),
				zap.Error(err),
			)
			return fail()
		}
		if identity == nil {
			return anonymous()
		}
		return identity, ReconcileResult{}, false

	case in.AccessToken != "":
		identity, err := idp.CurrentUser(ctx, in.AccessToken)
		if err != nil {
			s.logger.Warn("identity provider failed",
				zap.String("flow", string(flow)),
				zap.Error(err),
			)
			return fail()
		}
		if identity == nil {
			return anonymous()
		}
		return identity, ReconcileResult{}, false

	default:
		// visitor arrived without completing the handshake: anonymous,
		// not a fault
		return anonymous()
	}
}

// lookupAccount resolves the local account for a provider identity strictly
// by subject id. Email and phone are provider-asserted claims, so matching on
// them would let one provider account take over another account that happens
// to share an address; a miss here is the provisioning case, never a link.
func (s *AuthService) lookupAccount(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, identity.ID)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRoleNotFound
	}
	return nil, err
}

// provision creates a customer account for a first-time OAuth identity.
func (s *AuthService) provision(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	user := &domain.User{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Phone: identity.Phone,
		Role:  domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventAccountProvisioned,
		SubjectID: user.ID,
		Payload:   events.ProvisionPayload{Email: user.Email, Role: user.Role},
	})
	return user, nil
}

func (s *AuthService) finish(ctx context.Context, flow Flow, result ReconcileResult) ReconcileResult {
	s.metrics.RecordAuthOutcome(string(flow), string(result.State))
	s.publish(ctx, events.Event{
		Type: events.EventCallbackReconciled,
		Payload: events.CallbackPayload{
			Flow:     string(flow),
			State:    string(result.State),
			Redirect: result.Redirect,
		},
	})
	return result
}

// Login authenticates a local account by email or phone and issues a
// credential. Failures are uniformly ErrInvalidCredentials so the response
// does not reveal which half was wrong.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmailOrPhone(ctx, identifier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.publishLoginFailed(ctx, identifier)
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, err
	}
	if user.PasswordHash == "" {
		// OAuth-provisioned account with no local password
		s.publishLoginFailed(ctx, identifier)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.publishLoginFailed(ctx, identifier)
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(domain.IdentityFromUser(user))
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventLoginSucceeded,
		SubjectID: user.ID,
		Payload:   events.LoginPayload{Identifier: identifier, Role: user.Role},
	})
	return user, token, expiresAt, nil
}

// Logout records the sign-out. The credential is stateless so there is
// nothing to invalidate server-side; the transport cookie is cleared by the
// handler and the client is told to end the provider session as well.
func (s *AuthService) Logout(ctx context.Context, subjectID string) {
	s.publish(ctx, events.Event{
		Type:      events.EventLogout,
		SubjectID: subjectID,
	})
}

func (s *AuthService) publishLoginFailed(ctx context.Context, identifier string) {
	s.publish(ctx, events.Event{
		Type:    events.EventLoginFailed,
		Payload: events.LoginPayload{Identifier: identifier},
	})
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}
