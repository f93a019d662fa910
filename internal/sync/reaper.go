package sync

import (
	"context"
	"log"

	"github.com/projet-lalana/backend/internal/docstore"
	"github.com/projet-lalana/backend/internal/status"
)

// Reaper borne la taille des collections publiées: une fois un signalement ou
// un problème au statut terminal, le mobile n'a plus besoin de le lister et le
// magasin autoritaire reste l'archive permanente.
type Reaper struct {
	store   docstore.Store
	catalog *status.Catalog
}

func NewReaper(store docstore.Store, catalog *status.Catalog) *Reaper {
	return &Reaper{store: store, catalog: catalog}
}

// ReapReports supprime de report_list les documents au statut terminal.
func (r *Reaper) ReapReports(ctx context.Context) (int, error) {
	return r.reap(ctx, docstore.CollectionReportList, r.catalog.TerminalValeur(status.KindSignalement))
}

// ReapWorkItems supprime de workitem_list les documents au statut terminal.
func (r *Reaper) ReapWorkItems(ctx context.Context) (int, error) {
	return r.reap(ctx, docstore.CollectionWorkItemList, r.catalog.TerminalValeur(status.KindProbleme))
}

// reap ne sélectionne que valeur == terminal: un document sous le statut
// terminal n'est jamais supprimé par ce composant. Un échec de suppression
// individuel est journalisé et n'arrête pas la boucle.
func (r *Reaper) reap(ctx context.Context, collection string, terminal int) (int, error) {
	docs, err := r.store.QueryEqual(ctx, collection, "valeur", terminal)
	if err != nil {
		return 0, &ExternalServiceError{Service: "docstore", Op: "query " + collection, Err: err}
	}
	deleted := 0
	for _, doc := range docs {
		if err := r.store.Delete(ctx, collection, doc.ID); err != nil {
			log.Printf("[REAP] suppression %s/%s impossible: %v", collection, doc.ID, err)
			continue
		}
		deleted++
	}
	if len(docs) > 0 {
		log.Printf("[REAP] %d document(s) supprimé(s) de %s sur %d terminal(aux)", deleted, collection, len(docs))
	}
	return deleted, nil
}
