// Package status est l'unique point d'accès aux deux machines à états
// (signalement, problème). La valeur numérique d'un statut donne son ordre
// dans le cycle de vie; aucun autre paquet ne doit porter ces constantes.
package status

import (
	"fmt"
	"sync"

	"github.com/projet-lalana/backend/internal/models"

	"gorm.io/gorm"
)

// Kind distingue les deux machines à états.
type Kind string

const (
	KindSignalement Kind = "signalement"
	KindProbleme    Kind = "probleme"
)

// Valeurs du cycle de vie, communes aux deux catalogues.
const (
	ValeurInitial  = 10
	ValeurEnCours  = 20
	ValeurTerminal = 30
)

// Catalog sert les lignes de référence seedées en base, avec cache en mémoire.
// Lecture pure: aucun effet de bord.
type Catalog struct {
	db *gorm.DB

	mu   sync.Mutex
	sig  map[int]models.SignalementStatus
	prob map[int]models.ProblemeStatus
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// TerminalValeur returns the terminal ordering value for the given kind.
// Both state machines share the same terminal value.
func (c *Catalog) TerminalValeur(kind Kind) int { return ValeurTerminal }

// InitialValeur returns the entry ordering value for the given kind.
func (c *Catalog) InitialValeur(kind Kind) int { return ValeurInitial }

// IsTerminal reports whether a status value is the end of its state machine.
func (c *Catalog) IsTerminal(valeur int) bool { return valeur >= ValeurTerminal }

func (c *Catalog) SignalementByValeur(valeur int) (models.SignalementStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sig == nil {
		var rows []models.SignalementStatus
		if err := c.db.Find(&rows).Error; err != nil {
			return models.SignalementStatus{}, fmt.Errorf("load signalement statuses: %w", err)
		}
		c.sig = make(map[int]models.SignalementStatus, len(rows))
		for _, r := range rows {
			c.sig[r.Valeur] = r
		}
	}
	st, ok := c.sig[valeur]
	if !ok {
		return models.SignalementStatus{}, fmt.Errorf("statut signalement introuvable (valeur=%d)", valeur)
	}
	return st, nil
}

func (c *Catalog) ProblemeByValeur(valeur int) (models.ProblemeStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prob == nil {
		var rows []models.ProblemeStatus
		if err := c.db.Find(&rows).Error; err != nil {
			return models.ProblemeStatus{}, fmt.Errorf("load probleme statuses: %w", err)
		}
		c.prob = make(map[int]models.ProblemeStatus, len(rows))
		for _, r := range rows {
			c.prob[r.Valeur] = r
		}
	}
	st, ok := c.prob[valeur]
	if !ok {
		return models.ProblemeStatus{}, fmt.Errorf("statut problème introuvable (valeur=%d)", valeur)
	}
	return st, nil
}

// InitialSignalement returns the status a freshly imported signalement starts in.
func (c *Catalog) InitialSignalement() (models.SignalementStatus, error) {
	return c.SignalementByValeur(ValeurInitial)
}

// InitialProbleme returns the status a freshly filed probleme starts in.
func (c *Catalog) InitialProbleme() (models.ProblemeStatus, error) {
	return c.ProblemeByValeur(ValeurInitial)
}
