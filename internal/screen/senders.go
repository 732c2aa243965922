package screen

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// MinSenderCodeLen is the shortest code a user may approve. Codes match as
// substrings, so shorter ones would catch unrelated senders.
const MinSenderCodeLen = 4

var (
	ErrInvalidSender = errors.New("sender code must be at least 4 letters or digits")
	ErrNoOwner       = errors.New("approved sender needs an owner")

	senderCodeRe = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// BuiltinSenders are sender codes of banks and payment providers that are
// always treated as financial. Users can add codes but never remove these.
var BuiltinSenders = []string{
	"HDFCBK", "HDFCBN", "ICICIB", "ICICIT", "SBIINB", "SBIUPI", "SBIPSG", "CBSSBI",
	"AXISBK", "AXISMR", "KOTAKB", "PNBSMS", "BOIIND", "BARODA", "CANBNK", "UNIONB",
	"IDFCFB", "INDUSB", "YESBNK", "FEDBNK", "RBLBNK", "SCBANK", "CITIBK", "HSBCIN",
	"AUBANK", "IDBIBK", "PAYTMB", "AIRBNK", "JIOPBS", "AMAZON", "APAY", "GPAY",
	"PHONPE", "MOBIKW", "CRED", "SLCEIT", "BANK", "UPI",
}

// ApprovedSender is a code one user marked as financial.
type ApprovedSender struct {
	UserID string
	Code   string
}

type SenderRepository interface {
	ListApproved(ctx context.Context) ([]ApprovedSender, error)
	AddApproved(ctx context.Context, userID, code string) error
}

// SenderSet is an immutable snapshot of the known sender codes.
type SenderSet struct {
	Version  int64
	builtin  []string
	approved []string
}

func NewSenderSet(version int64, builtin, approved []string) *SenderSet {
	return &SenderSet{
		Version:  version,
		builtin:  normalizeCodes(builtin),
		approved: normalizeCodes(approved),
	}
}

// IsKnownFinancialSender reports whether any known code appears inside sender.
// Carriers decorate codes with prefixes and suffixes (VM-HDFCBK, AD-SBIUPI-S),
// so a substring match is used.
func (s *SenderSet) IsKnownFinancialSender(sender string) bool {
	sender = strings.ToUpper(strings.TrimSpace(sender))
	if sender == "" {
		return false
	}

	for _, code := range s.builtin {
		if strings.Contains(sender, code) {
			return true
		}
	}

	for _, code := range s.approved {
		if strings.Contains(sender, code) {
			return true
		}
	}

	return false
}

func (s *SenderSet) Builtin() []string  { return slices.Clone(s.builtin) }
func (s *SenderSet) Approved() []string { return slices.Clone(s.approved) }

func (s *SenderSet) contains(code string) bool {
	return slices.Contains(s.builtin, code) || slices.Contains(s.approved, code)
}

// Registry publishes per-user SenderSet snapshots: the built-in codes plus the
// codes that user approved. Readers never block.
type Registry struct {
	repo    SenderRepository
	builtin []string

	mu      sync.Mutex // serializes writers
	current atomic.Pointer[registryState]
}

type registryState struct {
	version int64
	base    *SenderSet
	users   map[string]*SenderSet
}

func NewRegistry(repo SenderRepository, builtin []string) *Registry {
	r := &Registry{repo: repo, builtin: builtin}
	r.current.Store(&registryState{
		base:  NewSenderSet(0, builtin, nil),
		users: map[string]*SenderSet{},
	})

	return r
}

// Load replaces every user's approved codes with the persisted ones.
func (r *Registry) Load(ctx context.Context) error {
	approved, err := r.repo.ListApproved(ctx)
	if err != nil {
		return fmt.Errorf("listing approved senders: %w", err)
	}

	byUser := map[string][]string{}
	for _, a := range approved {
		byUser[a.UserID] = append(byUser[a.UserID], a.Code)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	version := r.current.Load().version + 1

	next := &registryState{
		version: version,
		base:    NewSenderSet(version, r.builtin, nil),
		users:   make(map[string]*SenderSet, len(byUser)),
	}

	for userID, codes := range byUser {
		next.users[userID] = NewSenderSet(version, r.builtin, codes)
	}

	r.current.Store(next)

	return nil
}

// Snapshot returns the codes that count as financial for userID.
func (r *Registry) Snapshot(userID string) *SenderSet {
	st := r.current.Load()
	if set, ok := st.users[userID]; ok {
		return set
	}

	return st.base
}

// Approve persists a code for userID and publishes a new snapshot. Other
// users' snapshots are unchanged.
func (r *Registry) Approve(ctx context.Context, userID, code string) (*SenderSet, error) {
	if userID == "" {
		return nil, ErrNoOwner
	}

	code = normalizeCode(code)
	if len(code) < MinSenderCodeLen || !senderCodeRe.MatchString(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSender, code)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.current.Load()

	cur := st.base
	if set, ok := st.users[userID]; ok {
		cur = set
	}

	if cur.contains(code) {
		return cur, nil
	}

	if err := r.repo.AddApproved(ctx, userID, code); err != nil {
		return nil, fmt.Errorf("saving approved sender: %w", err)
	}

	next := &registryState{
		version: st.version + 1,
		base:    st.base,
		users:   make(map[string]*SenderSet, len(st.users)+1),
	}

	for id, set := range st.users {
		next.users[id] = set
	}

	set := NewSenderSet(next.version, cur.builtin, append(cur.Approved(), code))
	next.users[userID] = set
	r.current.Store(next)

	return set, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = normalizeCode(c)
		if c == "" || slices.Contains(out, c) {
			continue
		}

		out = append(out, c)
	}

	return out
}
