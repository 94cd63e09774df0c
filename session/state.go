package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/hotel-session/credential"
	"github.com/jrsteele09/hotel-session/credstore"
	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
	"github.com/rs/zerolog"
)

// Listener is notified after every effective session change. ok is false when
// the session became absent. Listeners run synchronously, in change order, and
// must not call State's mutating methods themselves.
type Listener func(s Session, ok bool)

// State is the process-wide session projection and the only writer to the
// credential store.
type State struct {
	store   credstore.Store
	decoder credential.Decoder
	log     zerolog.Logger

	writeMu sync.Mutex // serialises store writes together with projection swaps
	mu      sync.RWMutex
	current *Session

	notifyMu  sync.Mutex
	listeners map[int]Listener
	nextID    int
}

type Option func(*State)

func WithLogger(log zerolog.Logger) Option {
	return func(s *State) {
		s.log = log
	}
}

// New rehydrates the session from store. Any stored credential that cannot be
// decoded leaves the session absent and wipes the store.
func New(ctx context.Context, store credstore.Store, decoder credential.Decoder, options ...Option) *State {
	s := &State{
		store:     store,
		decoder:   decoder,
		log:       zerolog.Nop(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.decoder == nil {
		s.decoder = credential.NewDecoder()
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.current = s.loadLocked(ctx)
	return s
}

// Current returns the session, or false when logged out.
func (s *State) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Set replaces the session with a newly issued pair, as returned by a login,
// registration or refresh exchange. On error the session is unchanged.
func (s *State) Set(ctx context.Context, access, refresh string) error {
	s.writeMu.Lock()
	next, err := s.replaceLocked(ctx, access, refresh)
	if err != nil {
		s.writeMu.Unlock()
		return err
	}
	s.publishLocked(next)
	return nil
}

// SetIf is Set, applied only while the current session still has key. It
// reports false, without error, when the session has moved on; otherwise it
// returns the session it installed.
func (s *State) SetIf(ctx context.Context, key Key, access, refresh string) (Session, bool, error) {
	s.writeMu.Lock()
	if !s.matchesLocked(key) {
		s.writeMu.Unlock()
		return Session{}, false, nil
	}
	next, err := s.replaceLocked(ctx, access, refresh)
	if err != nil {
		s.writeMu.Unlock()
		return Session{}, true, err
	}
	installed := *next
	s.publishLocked(next)
	return installed, true, nil
}

// Clear logs out: the projection becomes absent and the store is wiped.
func (s *State) Clear(ctx context.Context) {
	s.writeMu.Lock()
	s.clearLocked(ctx)
}

// ClearIf clears only while the current session still has key.
func (s *State) ClearIf(ctx context.Context, key Key) bool {
	s.writeMu.Lock()
	if !s.matchesLocked(key) {
		s.writeMu.Unlock()
		return false
	}
	s.clearLocked(ctx)
	return true
}

// Reload re-reads the store, picking up changes made by another process.
func (s *State) Reload(ctx context.Context) {
	s.writeMu.Lock()
	next := s.loadLocked(ctx)

	prev, _ := s.Current()
	if next != nil && prev.Key() == next.Key() && prev.Access.Raw == next.Access.Raw {
		s.writeMu.Unlock()
		return
	}
	if next == nil && s.isAbsent() {
		s.writeMu.Unlock()
		return
	}
	s.publishLocked(next)
}

// Subscribe registers l and returns a function that removes it.
func (s *State) Subscribe(l Listener) (cancel func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *State) isAbsent() bool {
	_, ok := s.Current()
	return !ok
}

func (s *State) matchesLocked(key Key) bool {
	cur, ok := s.Current()
	return ok && cur.Key() == key
}

// decode builds a complete Session or fails; never a partial one.
func (s *State) decode(access, refresh string) (*Session, error) {
	a, err := s.decoder.Decode(access)
	if err != nil {
		return nil, autherrors.Wrapf(err, "access credential")
	}
	r, err := s.decoder.Decode(refresh)
	if err != nil {
		return nil, autherrors.Wrapf(err, "refresh credential")
	}
	if a.Subject != r.Subject {
		return nil, autherrors.ErrSubjectMismatch
	}
	return &Session{Access: a, Refresh: r}, nil
}

func (s *State) replaceLocked(ctx context.Context, access, refresh string) (*Session, error) {
	next, err := s.decode(access, refresh)
	if err != nil {
		return nil, fmt.Errorf("[session Set] %w", err)
	}
	if err := s.store.Save(ctx, access, refresh); err != nil {
		return nil, fmt.Errorf("[session Set] %w", err)
	}
	return next, nil
}

func (s *State) clearLocked(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to clear credential store")
	}
	if s.isAbsent() {
		s.writeMu.Unlock()
		return
	}
	s.publishLocked(nil)
}

// loadLocked reads and decodes the stored pair, healing the store if it holds
// anything other than a complete decodable pair.
func (s *State) loadLocked(ctx context.Context) *Session {
	access, refresh, err := s.store.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("credential store unavailable, starting logged out")
		return nil
	}
	if access == "" && refresh == "" {
		return nil
	}

	sess, err := s.decode(access, refresh)
	if err != nil {
		s.log.Warn().Err(err).Msg("discarding unusable stored credentials")
		if clearErr := s.store.Clear(ctx); clearErr != nil {
			s.log.Error().Err(clearErr).Msg("failed to clear credential store")
		}
		return nil
	}

	s.log.Info().Str("subject", sess.Subject()).Str("role", sess.Role()).Msg("session restored")
	return sess
}

// publishLocked swaps the projection, hands writeMu over to notifyMu and
// delivers the change. Called with writeMu held; returns with it released.
func (s *State) publishLocked(next *Session) {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.notifyMu.Lock()
	s.writeMu.Unlock()
	defer s.notifyMu.Unlock()

	var snapshot Session
	if next != nil {
		snapshot = *next
	}
	for _, l := range s.listeners {
		l(snapshot, next != nil)
	}
}
