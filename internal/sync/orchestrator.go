package sync

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrCycleInProgress: un cycle tourne déjà. Les imports et publications
// manipulent des drapeaux de visibilité qui ne tolèrent pas deux écrivains.
var ErrCycleInProgress = errors.New("un cycle de synchronisation est déjà en cours")

// CycleReport rend compte d'un cycle, au mieux de ce qui a pu s'exécuter:
// un cycle normal ne remonte jamais d'erreur, seules les indisponibilités
// d'infrastructure totales en produisent une.
type CycleReport struct {
	Blocked            int               `json:"blocked"`
	Reactivated        int               `json:"reactivated"`
	LinkedAccounts     int               `json:"linkedAccounts"`
	DeletedAccounts    int               `json:"deletedAccounts"`
	Imported           int               `json:"imported"`
	PublishedReports   int               `json:"publishedReports"`
	PublishedWorkItems int               `json:"publishedWorkItems"`
	ReapedReports      int               `json:"reapedReports"`
	ReapedWorkItems    int               `json:"reapedWorkItems"`
	TokensRefreshed    int               `json:"tokensRefreshed"`
	StepErrors         map[string]string `json:"stepErrors,omitempty"`
	StartedAt          time.Time         `json:"startedAt"`
	Duration           time.Duration     `json:"duration"`
}

// Orchestrator compose les composants du moteur en un cycle complet à l'ordre
// fixe. L'ordre compte: la réconciliation des comptes passe d'abord pour que
// les notifications référencent des utilisateurs à jour, et l'import précède
// la publication pour que les nouveaux enregistrements aient un id.
type Orchestrator struct {
	reconciler *Reconciler
	importer   *Importer
	publisher  *Publisher
	reaper     *Reaper
	tokens     *TokenRefresher

	cycleTimeout time.Duration
	mu           sync.Mutex
}

func NewOrchestrator(reconciler *Reconciler, importer *Importer, publisher *Publisher, reaper *Reaper, tokens *TokenRefresher, cycleTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		reconciler:   reconciler,
		importer:     importer,
		publisher:    publisher,
		reaper:       reaper,
		tokens:       tokens,
		cycleTimeout: cycleTimeout,
	}
}

// RunCycle exécute un cycle complet. Chaque étape est isolée: son échec est
// journalisé, consigné dans le rapport, et n'empêche pas les étapes suivantes.
// Un seul cycle à la fois; un second appel concurrent reçoit
// ErrCycleInProgress sans attendre. Sur annulation du contexte, les opérations
// en vol se terminent mais aucune étape suivante ne démarre.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleReport, error) {
	if !o.mu.TryLock() {
		return CycleReport{}, ErrCycleInProgress
	}
	defer o.mu.Unlock()

	if o.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cycleTimeout)
		defer cancel()
	}

	report := CycleReport{StartedAt: time.Now(), StepErrors: map[string]string{}}
	start := time.Now()

	step := func(name string, fn func() error) {
		if ctx.Err() != nil {
			report.StepErrors[name] = ctx.Err().Error()
			return
		}
		if err := fn(); err != nil {
			log.Printf("[SYNC] étape %s en échec: %v", name, err)
			report.StepErrors[name] = err.Error()
		}
	}

	step("reconcile_inbound", func() error {
		res, err := o.reconciler.Inbound(ctx)
		report.Blocked, report.LinkedAccounts, report.DeletedAccounts = res.Blocked, res.Linked, res.Deleted
		return err
	})
	step("reconcile_outbound", func() error {
		n, err := o.reconciler.Outbound(ctx)
		report.Reactivated = n
		return err
	})
	step("import_reports", func() error {
		n, err := o.importer.ImportPending(ctx)
		report.Imported = n
		return err
	})
	step("publish_reports", func() error {
		n, err := o.publisher.PublishReports(ctx)
		report.PublishedReports = n
		return err
	})
	step("publish_workitems", func() error {
		n, err := o.publisher.PublishWorkItems(ctx)
		report.PublishedWorkItems = n
		return err
	})
	step("reap_reports", func() error {
		n, err := o.reaper.ReapReports(ctx)
		report.ReapedReports = n
		return err
	})
	step("reap_workitems", func() error {
		n, err := o.reaper.ReapWorkItems(ctx)
		report.ReapedWorkItems = n
		return err
	})
	step("refresh_tokens", func() error {
		n, err := o.tokens.Refresh(ctx)
		report.TokensRefreshed = n
		return err
	})

	if len(report.StepErrors) == 0 {
		report.StepErrors = nil
	}
	report.Duration = time.Since(start)
	log.Printf("[SYNC] cycle terminé en %s (importés=%d publiés=%d/%d purgés=%d/%d bloqués=%d réactivés=%d)",
		report.Duration, report.Imported, report.PublishedReports, report.PublishedWorkItems,
		report.ReapedReports, report.ReapedWorkItems, report.Blocked, report.Reactivated)
	return report, nil
}
