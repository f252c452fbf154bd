package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrNoWalletConnector is reported when a wallet connection is attempted
	// on a store built without a connector.
	ErrNoWalletConnector = errors.New("no wallet connector configured")

	// ErrNoAuthenticator is reported when login or registration is attempted
	// on a store built without an authenticator.
	ErrNoAuthenticator = errors.New("no authenticator configured")

	// ErrPersist wraps durable storage failures while saving the record.
	ErrPersist = errors.New("persist session")

	errMissingID    = errors.New("stored user record has no id")
	errEmptyAddress = errors.New("wallet returned an empty address")
)

const (
	msgLoadFailed     = "Failed to load user data"
	msgWalletFailed   = "Failed to connect wallet"
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"
	msgPersistFailed  = "Failed to save user data"
)

// Authenticator resolves credentials into an account.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (Account, error)
	Register(ctx context.Context, input RegisterInput) (Account, error)
}

// WalletConnector obtains a wallet address for the session.
type WalletConnector interface {
	Connect(ctx context.Context) (WalletLink, error)
}

// Listener receives the snapshot produced by every state change.
type Listener func(State)

// Deps groups the collaborators of a Store.
type Deps struct {
	Storage       Storage
	Authenticator Authenticator
	Wallet        WalletConnector
	Logger        *slog.Logger
}

type subscription struct {
	id int
	fn Listener
}

// Store is the authority on who is using one browser session. All
// operations record failures in the snapshot's Error field; the returned
// error mirrors it for callers that need to pick a status code.
type Store struct {
	key     string
	storage Storage
	auth    Authenticator
	wallet  WalletConnector
	logger  *slog.Logger
	newID   func() string

	inflight atomic.Int32

	mu        sync.Mutex
	state     State
	listeners []subscription
	nextSub   int
}

// NewStore builds a store persisting its record under key. The store starts
// loading until Init runs.
func NewStore(key string, deps Deps) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	storage := deps.Storage
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &Store{
		key:     key,
		storage: storage,
		auth:    deps.Authenticator,
		wallet:  deps.Wallet,
		logger:  logger.With(slog.String("session_key", key)),
		newID:   func() string { return "user_" + uuid.NewString() },
		state:   State{IsLoading: true},
	}
}

// Key returns the storage key of the store.
func (s *Store) Key() string {
	return s.key
}

// Busy reports whether an operation is running on the store.
func (s *Store) Busy() bool {
	return s.inflight.Load() > 0
}

func (s *Store) track() func() {
	s.inflight.Add(1)
	return func() { s.inflight.Add(-1) }
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	return State{User: s.state.User.clone(), IsLoading: s.state.IsLoading, Error: s.state.Error}
}

// Subscribe registers fn for every subsequent state change and returns a
// function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.listeners {
			if sub.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// update applies fn under the lock and notifies listeners with the result.
func (s *Store) update(fn func(*State)) State {
	s.mu.Lock()
	fn(&s.state)
	snap := s.snapshotLocked()
	subs := append([]subscription(nil), s.listeners...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
	return snap
}

func (s *Store) begin() {
	s.update(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})
}

// Init rehydrates the store from durable storage. A missing record yields
// an anonymous session; an unreadable one yields an anonymous session with
// Error set.
func (s *Store) Init(ctx context.Context) error {
	defer s.track()()
	raw, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		s.update(func(st *State) { *st = State{} })
		return nil
	}
	if err == nil {
		var user *User
		user, err = decodeUser(raw)
		if err == nil {
			s.update(func(st *State) { *st = State{User: user} })
			return nil
		}
	}

	s.logger.Error("load session", slog.Any("error", err))
	s.update(func(st *State) { *st = State{Error: fmt.Sprintf("%s: %v", msgLoadFailed, err)} })
	return fmt.Errorf("load session: %w", err)
}

func decodeUser(raw []byte) (*User, error) {
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, errMissingID
	}
	if u.WalletAddress == "" {
		u.WalletConnected = false
		u.WalletSynthetic = false
	}
	u.IsAuthenticated = true
	return &u, nil
}

// ConnectWallet links a wallet using the store's connector.
func (s *Store) ConnectWallet(ctx context.Context) error {
	return s.ConnectWalletWith(ctx, s.wallet)
}

// ConnectWalletWith links a wallet obtained from connector. On success the
// address is merged into the current user, or into a new one when the
// session is anonymous. On failure the existing session is kept and only
// Error changes.
func (s *Store) ConnectWalletWith(ctx context.Context, connector WalletConnector) error {
	defer s.track()()
	s.begin()

	link, err := s.connect(ctx, connector)
	if err != nil {
		s.logger.Warn("wallet connection failed", slog.Any("error", err))
		s.update(func(st *State) {
			st.IsLoading = false
			st.Error = messageFor(err, msgWalletFailed)
		})
		return err
	}

	s.mu.Lock()
	user := s.state.User.clone()
	s.mu.Unlock()

	if user == nil {
		user = &User{}
	}
	if user.ID == "" {
		user.ID = s.newID()
	}
	if user.Plan == "" {
		user.Plan = PlanFree
	}
	if user.Tier == 0 {
		user.Tier = 1
	}
	if user.Type == "" {
		user.Type = TypeUser
	}
	user.WalletAddress = link.Address
	user.WalletConnected = true
	user.WalletSynthetic = link.Synthetic
	user.IsAuthenticated = true

	if err := s.commit(ctx, user); err != nil {
		return err
	}
	s.logger.Info("wallet connected", slog.String("user_id", user.ID), slog.Bool("synthetic", link.Synthetic))
	return nil
}

func (s *Store) connect(ctx context.Context, connector WalletConnector) (WalletLink, error) {
	if connector == nil {
		return WalletLink{}, ErrNoWalletConnector
	}
	link, err := connector.Connect(ctx)
	if err != nil {
		return WalletLink{}, err
	}
	if strings.TrimSpace(link.Address) == "" {
		return WalletLink{}, errEmptyAddress
	}
	return link, nil
}

// DisconnectWallet clears the wallet fields of the current user. It does
// nothing for an anonymous session.
func (s *Store) DisconnectWallet(ctx context.Context) error {
	defer s.track()()
	s.mu.Lock()
	user := s.state.User.clone()
	s.mu.Unlock()
	if user == nil {
		return nil
	}

	user.WalletAddress = ""
	user.WalletConnected = false
	user.WalletSynthetic = false
	return s.commit(ctx, user)
}

// Login replaces the session with the account matching the credentials.
func (s *Store) Login(ctx context.Context, email, password string) error {
	defer s.track()()
	s.begin()

	if s.auth == nil {
		return s.fail(ErrNoAuthenticator, msgLoginFailed)
	}
	acct, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return s.fail(err, msgLoginFailed)
	}

	user := s.fresh(acct)
	if user.Email == "" {
		user.Email = email
	}
	if user.Name == "" {
		user.Name = localPart(email)
	}
	if err := s.commit(ctx, user); err != nil {
		return err
	}
	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return nil
}

// Register creates a new account from input and makes it the session user.
func (s *Store) Register(ctx context.Context, input RegisterInput) error {
	defer s.track()()
	s.begin()

	if s.auth == nil {
		return s.fail(ErrNoAuthenticator, msgRegisterFailed)
	}
	acct, err := s.auth.Register(ctx, input)
	if err != nil {
		return s.fail(err, msgRegisterFailed)
	}

	user := s.fresh(acct)
	if user.Name == "" {
		user.Name = input.Name
	}
	if user.Email == "" {
		user.Email = input.Email
	}
	if user.Bio == "" {
		user.Bio = input.Bio
	}
	if acct.Type == "" && input.Type != "" {
		user.Type = input.Type
	}
	if input.WalletAddress != "" {
		user.WalletAddress = input.WalletAddress
		user.WalletConnected = true
		user.WalletSynthetic = input.WalletSynthetic
	}
	if err := s.commit(ctx, user); err != nil {
		return err
	}
	s.logger.Info("user registered", slog.String("user_id", user.ID), slog.String("type", string(user.Type)))
	return nil
}

// fresh builds a new session record from acct, filling the defaults of a
// newly created account.
func (s *Store) fresh(acct Account) *User {
	user := &User{
		ID:              acct.ID,
		Name:            acct.Name,
		Email:           acct.Email,
		Bio:             acct.Bio,
		TokenBalance:    acct.TokenBalance,
		Plan:            acct.Plan,
		Tier:            acct.Tier,
		Type:            acct.Type,
		IsAuthenticated: true,
	}
	if user.ID == "" {
		user.ID = s.newID()
	}
	if user.TokenBalance == 0 {
		user.TokenBalance = InitialTokenGrant
	}
	if user.Plan == "" {
		user.Plan = PlanFree
	}
	if user.Tier == 0 {
		user.Tier = 1
	}
	if user.Type == "" {
		user.Type = TypeUser
	}
	return user
}

// Logout removes the session record. It always succeeds; a storage failure
// is only logged.
func (s *Store) Logout(ctx context.Context) {
	defer s.track()()
	if err := s.storage.Remove(ctx, s.key); err != nil {
		s.logger.Warn("remove session record", slog.Any("error", err))
	}
	s.update(func(st *State) { *st = State{} })
}

// UpdateProfile merges patch into the current user. It does nothing for an
// anonymous session.
func (s *Store) UpdateProfile(ctx context.Context, patch ProfilePatch) error {
	defer s.track()()
	s.mu.Lock()
	user := s.state.User.clone()
	s.mu.Unlock()
	if user == nil {
		return nil
	}

	patch.apply(user)
	return s.commit(ctx, user)
}

// commit persists user and makes it the current record.
func (s *Store) commit(ctx context.Context, user *User) error {
	raw, err := json.Marshal(user)
	if err == nil {
		err = s.storage.Set(ctx, s.key, raw)
	}
	if err != nil {
		s.logger.Error("persist session", slog.Any("error", err))
		s.update(func(st *State) {
			st.User = user
			st.IsLoading = false
			st.Error = fmt.Sprintf("%s: %v", msgPersistFailed, err)
		})
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	s.update(func(st *State) { *st = State{User: user} })
	return nil
}

// fail records err as the outcome of a login or registration attempt.
func (s *Store) fail(err error, fallback string) error {
	s.logger.Warn("authentication failed", slog.Any("error", err))
	s.update(func(st *State) { *st = State{Error: messageFor(err, fallback)} })
	return err
}

func messageFor(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

func localPart(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}
