package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/RoyceAzure/lab/empanada/internal/constants"
	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/infra/repository/state"
	"github.com/RoyceAzure/lab/empanada/internal/pkg/errs"
	"github.com/rs/zerolog"
)

type IAuthAPI interface {
	Login(ctx context.Context, identifier, password string) (*model.LoginResponse, error)
	Register(ctx context.Context, req model.RegisterRequest) error
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SessionService 唯一可以修改登入狀態的元件，同時提供 API client 的 token
type SessionService struct {
	store    state.IStateStore
	api      IAuthAPI
	notifier Notifier
	logger   *zerolog.Logger

	mu      sync.RWMutex
	session *model.Session
}

func NewSessionService(store state.IStateStore, api IAuthAPI, notifier Notifier, logger *zerolog.Logger) *SessionService {
	if store == nil {
		panic("session store is nil")
	}
	if api == nil {
		panic("session auth api is nil")
	}
	if logger == nil {
		panic("session logger is nil")
	}
	return &SessionService{store: store, api: api, notifier: notifier, logger: logger}
}

// Restore 讀回上次的登入狀態，資料損壞時刪除
func (s *SessionService) Restore(ctx context.Context) error {
	var sess model.Session
	found, err := s.store.Load(ctx, constants.SessionStorageKey, &sess)
	if errors.Is(err, state.ErrCorruptedRecord) {
		s.logger.Warn().Err(err).Msg("session record corrupted, signed out")
		if err := s.store.Delete(ctx, constants.SessionStorageKey); err != nil {
			s.logger.Error().Err(err).Msg("delete corrupted session failed")
		}
		found = false
	} else if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if found && sess.Token != "" {
		s.session = &sess
	} else {
		s.session = nil
	}
	return nil
}

func (s *SessionService) Login(ctx context.Context, identifier, password string) (*model.User, error) {
	const op = "session.Login"

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		notify(s.notifier, LevelError, constants.MsgMissingCredentials)
		return nil, errs.New(op, errs.KindValidation, constants.MsgMissingCredentials)
	}

	res, err := s.api.Login(ctx, identifier, password)
	if err != nil {
		switch errs.KindOf(err) {
		case errs.KindRateLimited:
			notify(s.notifier, LevelError, constants.MsgRateLimited)
		case errs.KindUnauthorized, errs.KindBadRequest:
			notify(s.notifier, LevelError, errs.ReasonOf(err, constants.MsgBadCredentials))
		default:
			s.logger.Error().Err(err).Msg("login failed")
			notify(s.notifier, LevelError, constants.MsgBadCredentials)
		}
		return nil, err
	}

	sess := model.Session{User: res.User, Token: res.AccessToken}
	if err := s.store.Save(ctx, constants.SessionStorageKey, sess); err != nil {
		s.logger.Error().Err(err).Msg("persist session failed")
		return nil, errs.Wrap(op, errs.KindUnknown, err, "")
	}

	s.mu.Lock()
	s.session = &sess
	s.mu.Unlock()

	s.logger.Info().Str("email", sess.User.Email).Str("role", sess.User.Role).Msg("signed in")
	notify(s.notifier, LevelSuccess, fmt.Sprintf(constants.MsgWelcomeFormat, sess.User.FirstName()))
	user := sess.User
	return &user, nil
}

// Register 欄位在送出前先檢查，不合格不會發出請求
func (s *SessionService) Register(ctx context.Context, name, email, password string) error {
	const op = "session.Register"

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	var msg string
	switch {
	case name == "" || email == "" || password == "":
		msg = constants.MsgMissingFields
	case len(password) < constants.MinPasswordLength:
		msg = constants.MsgPasswordTooShort
	case !emailPattern.MatchString(email):
		msg = constants.MsgInvalidEmail
	}
	if msg != "" {
		notify(s.notifier, LevelError, msg)
		return errs.New(op, errs.KindValidation, msg)
	}

	err := s.api.Register(ctx, model.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		if errs.KindOf(err) == errs.KindRateLimited {
			notify(s.notifier, LevelError, constants.MsgRateLimited)
		} else {
			if !errs.IsUserCorrectable(err) {
				s.logger.Error().Err(err).Msg("register failed")
			}
			notify(s.notifier, LevelError, errs.ReasonOf(err, constants.MsgRequestFailed))
		}
		return err
	}

	notify(s.notifier, LevelSuccess, constants.MsgAccountCreated)
	return nil
}

func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, constants.SessionStorageKey); err != nil {
		s.logger.Error().Err(err).Msg("delete session failed")
		return errs.Wrap("session.Logout", errs.KindUnknown, err, "")
	}
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	notify(s.notifier, LevelInfo, constants.MsgLoggedOut)
	return nil
}

func (s *SessionService) Current() (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return model.Session{}, false
	}
	return *s.session, true
}

func (s *SessionService) User() (model.User, bool) {
	sess, ok := s.Current()
	return sess.User, ok
}

// Token 實作 apiclient.TokenSource
func (s *SessionService) Token() string {
	sess, _ := s.Current()
	return sess.Token
}

func (s *SessionService) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

func (s *SessionService) IsAdmin() bool {
	sess, ok := s.Current()
	return ok && sess.User.IsAdmin()
}
