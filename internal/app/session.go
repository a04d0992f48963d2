package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/studyhub-notify/internal/api"
	"github.com/nhle/studyhub-notify/internal/credential"
	"github.com/nhle/studyhub-notify/internal/logging"
	"github.com/nhle/studyhub-notify/internal/model"
	"github.com/nhle/studyhub-notify/internal/store"
	appsync "github.com/nhle/studyhub-notify/internal/sync"
	"github.com/nhle/studyhub-notify/internal/ui/counter"
)

// envAccountID marks the account built from environment variables.
const envAccountID = "env"

// countsJob is the poller job that re-syncs the header counters.
const countsJob = "counts"

// accountResolvedMsg is sent once the startup account and its token are
// known.
type accountResolvedMsg struct {
	account model.Account
	token   string
}

// noAccountMsg is sent when no usable account is configured. A nil err
// means first run.
type noAccountMsg struct {
	err error
}

// sessionMsg tags a result with the session that produced it, so results
// from a previous account never reach the current view.
type sessionMsg struct {
	id  int
	msg tea.Msg
}

// session is everything bound to one signed-in account.
type session struct {
	id      int
	account model.Account
	service api.NotificationService
	poller  *appsync.Poller

	// interval is the counts polling interval; zero when not polling.
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

// newSession builds a session and registers the counts job when the
// account polls.
func newSession(id int, acct model.Account, svc api.NotificationService, cfg model.DisplayConfig) *session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:      id,
		account: acct,
		service: svc,
		poller:  appsync.New(),
		ctx:     ctx,
		cancel:  cancel,
	}

	interval := cfg.PollIntervalSec
	if acct.PollIntervalSec > 0 {
		interval = acct.PollIntervalSec
	}
	if interval > 0 {
		s.interval = time.Duration(interval) * time.Second
		s.poller.Register(appsync.Job{
			Name:       countsJob,
			Interval:   s.interval,
			MaxBackoff: time.Duration(cfg.MaxBackoffSec) * time.Second,
			Run:        counter.Fetcher(svc),
		})
	}
	return s
}

// bind tags every message cmd produces with the session ID. Batches are
// unpacked so the runtime still executes their commands.
func (s *session) bind(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	id := s.id
	return func() tea.Msg {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			bound := make(tea.BatchMsg, len(batch))
			for i, c := range batch {
				bound[i] = s.bind(c)
			}
			return bound
		}
		return sessionMsg{id: id, msg: msg}
	}
}

// polling reports whether counts are refreshed by the poller.
func (s *session) polling() bool {
	return s.poller.Len() > 0
}

// stop cancels in-flight requests and halts polling.
func (s *session) stop() {
	s.poller.Stop()
	s.cancel()
}

// resolveAccount picks the startup account: environment override first,
// then the --account flag or default_account setting, then the most
// recently used enabled account.
func resolveAccount(opts Options) tea.Cmd {
	return func() tea.Msg {
		if opts.EnvBaseURL != "" && opts.EnvToken != "" {
			return accountResolvedMsg{
				account: model.Account{
					ID:      envAccountID,
					Name:    "environment",
					BaseURL: opts.EnvBaseURL,
					Enabled: true,
				},
				token: opts.EnvToken,
			}
		}

		ctx := context.Background()
		log := logging.For("app")

		var acct *model.Account
		want := opts.AccountID
		if want == "" {
			want = opts.Config.DefaultAccount
		}
		if want != "" {
			found, err := findAccount(ctx, opts.Store, want)
			if err != nil {
				return noAccountMsg{err: err}
			}
			acct = found
		} else {
			found, err := opts.Store.LastUsedAccount(ctx)
			if errors.Is(err, store.ErrAccountNotFound) {
				return noAccountMsg{}
			}
			if err != nil {
				return noAccountMsg{err: err}
			}
			acct = found
		}

		token, err := opts.Creds.Get(acct.CredentialKey())
		if err != nil {
			log.WithError(err).WithField("account", acct.ID).Warn("no token for account")
			return noAccountMsg{err: fmt.Errorf("no token stored for %q", acct.Name)}
		}
		if err := opts.Store.TouchAccount(ctx, acct.ID); err != nil {
			log.WithError(err).Warn("recording account use failed")
		}
		return accountResolvedMsg{account: *acct, token: token}
	}
}

// findAccount looks an account up by ID, then by name.
func findAccount(ctx context.Context, s store.Store, idOrName string) (*model.Account, error) {
	acct, err := s.GetAccount(ctx, idOrName)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, store.ErrAccountNotFound) {
		return nil, err
	}

	all, err := s.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Name == idOrName {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("account %q: %w", idOrName, store.ErrAccountNotFound)
}

// openAccount loads the token for a just-saved account.
func openAccount(creds *credential.Store, acct model.Account) tea.Cmd {
	return func() tea.Msg {
		token, err := creds.Get(acct.CredentialKey())
		if err != nil {
			return noAccountMsg{err: err}
		}
		return accountResolvedMsg{account: acct, token: token}
	}
}
