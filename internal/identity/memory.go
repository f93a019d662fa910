package identity

import (
	"context"
	"sort"
	"sync"
)

// MemoryProvider est une implémentation en mémoire du Provider pour les tests
// et le mode développement.
type MemoryProvider struct {
	mu       sync.Mutex
	accounts map[string]Account

	// FailWith permet d'injecter des pannes par opération dans les tests.
	// op ∈ {list,enable,disable,delete}.
	FailWith func(op, uid string) error

	// EnableCalls compte les appels EnableAccount par UID (vérification
	// d'idempotence dans les tests).
	EnableCalls map[string]int
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		accounts:    make(map[string]Account),
		EnableCalls: make(map[string]int),
	}
}

func (p *MemoryProvider) fail(op, uid string) error {
	if p.FailWith != nil {
		return p.FailWith(op, uid)
	}
	return nil
}

// Put crée ou remplace un compte (mise en place des tests).
func (p *MemoryProvider) Put(acc Account) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[acc.UID] = acc
}

// Get renvoie le compte et son existence (aide de test).
func (p *MemoryProvider) Get(uid string) (Account, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.accounts[uid]
	return acc, ok
}

func (p *MemoryProvider) ListAccounts(ctx context.Context) ([]Account, error) {
	if err := p.fail("list", ""); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Account, 0, len(p.accounts))
	for _, acc := range p.accounts {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (p *MemoryProvider) EnableAccount(ctx context.Context, uid string) error {
	if err := p.fail("enable", uid); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.accounts[uid]
	if !ok {
		return ErrAccountNotFound
	}
	acc.Disabled = false
	p.accounts[uid] = acc
	p.EnableCalls[uid]++
	return nil
}

func (p *MemoryProvider) DisableAccount(ctx context.Context, uid string) error {
	if err := p.fail("disable", uid); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	acc, ok := p.accounts[uid]
	if !ok {
		return ErrAccountNotFound
	}
	acc.Disabled = true
	p.accounts[uid] = acc
	return nil
}

func (p *MemoryProvider) DeleteAccount(ctx context.Context, uid string) error {
	if err := p.fail("delete", uid); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[uid]; !ok {
		return ErrAccountNotFound
	}
	delete(p.accounts, uid)
	return nil
}
