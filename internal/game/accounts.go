package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const defaultAdminAccount = "admin"

type accountRecord struct {
	Password    string    `json:"password"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	LastLogin   time.Time `json:"last_login,omitempty"`
	TotalLogins int       `json:"total_logins,omitempty"`
	Disabled    bool      `json:"disabled,omitempty"`
	Characters  []string  `json:"characters,omitempty"`
}

// AccountStats summarises persistent account metadata for status displays.
type AccountStats struct {
	CreatedAt   time.Time
	LastLogin   time.Time
	TotalLogins int
}

// AccountManager owns the credential store. Character state lives in the
// world's Store; the manager only tracks which names belong to an account.
type AccountManager struct {
	mu           sync.RWMutex
	accounts     map[string]accountRecord
	path         string
	adminAccount string
}

func NewAccountManager(path string) (*AccountManager, error) {
	manager := &AccountManager{
		accounts:     make(map[string]accountRecord),
		path:         path,
		adminAccount: defaultAdminAccount,
	}
	if err := manager.load(); err != nil {
		return nil, err
	}
	return manager, nil
}

func (a *AccountManager) SetAdminAccount(name string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		trimmed = defaultAdminAccount
	}
	a.mu.Lock()
	a.adminAccount = trimmed
	a.mu.Unlock()
}

func (a *AccountManager) IsAdmin(name string) bool {
	a.mu.RLock()
	admin := a.adminAccount
	a.mu.RUnlock()
	if admin == "" {
		admin = defaultAdminAccount
	}
	return foldName(name) == foldName(admin)
}

func (a *AccountManager) load() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) {
		a.accounts = make(map[string]accountRecord)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read accounts file: %w", err)
	}
	if len(data) == 0 {
		a.accounts = make(map[string]accountRecord)
		return nil
	}
	var accounts map[string]accountRecord
	if err := json.Unmarshal(data, &accounts); err != nil {
		return fmt.Errorf("decode accounts file: %w", err)
	}
	if accounts == nil {
		accounts = make(map[string]accountRecord)
	}
	a.accounts = accounts
	return nil
}

func (a *AccountManager) saveLocked() error {
	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "accounts-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp accounts file: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.accounts); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write accounts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp accounts file: %w", err)
	}
	if err := os.Rename(tmp.Name(), a.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace accounts file: %w", err)
	}
	return nil
}

func (a *AccountManager) Exists(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.accounts[foldName(name)]
	return ok
}

// Register creates a new account. The name claim and the save happen under
// one lock so concurrent registrations of the same name cannot both win.
func (a *AccountManager) Register(name, pass string) error {
	if err := validateName(name); err != nil {
		return reject(RejectInvalidRequest, "%s", err.Error())
	}
	if err := validatePassword(pass); err != nil {
		return reject(RejectInvalidRequest, "%s", err.Error())
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	key := foldName(name)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.accounts[key]; ok {
		return reject(RejectNameConflict, "account %s already exists", name)
	}
	a.accounts[key] = accountRecord{
		Password:  string(hashed),
		CreatedAt: time.Now().UTC(),
	}
	if err := a.saveLocked(); err != nil {
		delete(a.accounts, key)
		return err
	}
	return nil
}

// Authenticate verifies credentials and distinguishes missing, disabled,
// and wrong-password failures for the session layer.
func (a *AccountManager) Authenticate(name, pass string) error {
	a.mu.RLock()
	record, ok := a.accounts[foldName(name)]
	a.mu.RUnlock()
	if !ok {
		return reject(RejectNoAccount, "no account named %s", name)
	}
	if record.Disabled {
		return reject(RejectAccountDisabled, "account %s is disabled", name)
	}
	if bcrypt.CompareHashAndPassword([]byte(record.Password), []byte(pass)) != nil {
		return reject(RejectWrongPassword, "wrong password")
	}
	return nil
}

// Characters lists the commander names registered to the account.
func (a *AccountManager) Characters(name string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	record, ok := a.accounts[foldName(name)]
	if !ok || len(record.Characters) == 0 {
		return nil
	}
	out := make([]string, len(record.Characters))
	copy(out, record.Characters)
	sort.Strings(out)
	return out
}

// Owns reports whether the commander belongs to the account.
func (a *AccountManager) Owns(account, commander string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	record, ok := a.accounts[foldName(account)]
	if !ok {
		return false
	}
	target := foldName(commander)
	for _, name := range record.Characters {
		if foldName(name) == target {
			return true
		}
	}
	return false
}

// AddCharacter appends a commander name to the account roster.
func (a *AccountManager) AddCharacter(account, commander string) error {
	key := foldName(account)
	a.mu.Lock()
	defer a.mu.Unlock()
	record, ok := a.accounts[key]
	if !ok {
		return reject(RejectNoAccount, "no account named %s", account)
	}
	record.Characters = append(record.Characters, commander)
	a.accounts[key] = record
	if err := a.saveLocked(); err != nil {
		record.Characters = record.Characters[:len(record.Characters)-1]
		a.accounts[key] = record
		return err
	}
	return nil
}

// RecordLogin updates bookkeeping for a successful login.
func (a *AccountManager) RecordLogin(name string, when time.Time) error {
	key := foldName(name)
	a.mu.Lock()
	defer a.mu.Unlock()
	record, ok := a.accounts[key]
	if !ok {
		return fmt.Errorf("account not found")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = when.UTC()
	}
	record.LastLogin = when.UTC()
	record.TotalLogins++
	a.accounts[key] = record
	return a.saveLocked()
}

// SetDisabled toggles the account lockout flag.
func (a *AccountManager) SetDisabled(name string, disabled bool) error {
	key := foldName(name)
	a.mu.Lock()
	defer a.mu.Unlock()
	record, ok := a.accounts[key]
	if !ok {
		return fmt.Errorf("account not found")
	}
	record.Disabled = disabled
	a.accounts[key] = record
	return a.saveLocked()
}

// Stats returns account metadata for display purposes.
func (a *AccountManager) Stats(name string) (AccountStats, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	record, ok := a.accounts[foldName(name)]
	if !ok {
		return AccountStats{}, false
	}
	return AccountStats{
		CreatedAt:   record.CreatedAt,
		LastLogin:   record.LastLogin,
		TotalLogins: record.TotalLogins,
	}, true
}

// AllAccounts lists every registered account name key.
func (a *AccountManager) AllAccounts() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.accounts))
	for name := range a.accounts {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
