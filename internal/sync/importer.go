package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/projet-lalana/backend/internal/docstore"
	"github.com/projet-lalana/backend/internal/images"
	"github.com/projet-lalana/backend/internal/models"
	"github.com/projet-lalana/backend/internal/status"

	"gorm.io/gorm"
)

// Importer rapatrie les soumissions en attente du document store vers le
// magasin autoritaire.
type Importer struct {
	db      *gorm.DB
	store   docstore.Store
	fetcher *images.Fetcher
	catalog *status.Catalog

	// defaultUserID reçoit les soumissions dont le token ne correspond à
	// aucun utilisateur local.
	defaultUserID uint
	now           func() time.Time
}

func NewImporter(db *gorm.DB, store docstore.Store, fetcher *images.Fetcher, catalog *status.Catalog, defaultUserID uint) *Importer {
	return &Importer{
		db:            db,
		store:         store,
		fetcher:       fetcher,
		catalog:       catalog,
		defaultUserID: defaultUserID,
		now:           time.Now,
	}
}

// ImportPending liste report_inbox et importe chaque document indépendamment:
// un échec est journalisé puis sauté, jamais propagé au reste du lot. Tous les
// documents listés au début du cycle sont ensuite supprimés de l'inbox, import
// réussi ou non: l'inbox est une boîte de dépôt transitoire, pas une file de
// retry (le payload en échec est journalisé pour rejeu manuel).
// Renvoie le nombre d'imports réussis.
func (im *Importer) ImportPending(ctx context.Context) (int, error) {
	docs, err := im.store.List(ctx, docstore.CollectionReportInbox)
	if err != nil {
		return 0, &ExternalServiceError{Service: "docstore", Op: "list " + docstore.CollectionReportInbox, Err: err}
	}

	imported := 0
	for _, doc := range docs {
		if err := im.importOne(ctx, doc); err != nil {
			log.Printf("[IMPORT] document %s sauté: %v (payload=%v)", doc.ID, err, doc.Data)
			continue
		}
		imported++
	}

	// Nettoyage best-effort, découplé du succès des imports.
	for _, doc := range docs {
		if err := im.store.Delete(ctx, docstore.CollectionReportInbox, doc.ID); err != nil {
			log.Printf("[IMPORT] suppression inbox %s impossible: %v", doc.ID, err)
		}
	}

	log.Printf("[IMPORT] %d signalement(s) importé(s) sur %d document(s)", imported, len(docs))
	return imported, nil
}

func (im *Importer) importOne(ctx context.Context, doc docstore.Document) error {
	sub, err := docstore.DecodeInboxSubmission(doc)
	if err != nil {
		return err
	}

	// Clé d'idempotence: un document déjà importé par un cycle précédent
	// (interrompu avant le nettoyage de l'inbox) n'est pas réimporté.
	var count int64
	if err := im.db.Model(&models.Signalement{}).Where("source_doc_id = ?", doc.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("vérification idempotence: %w", err)
	}
	if count > 0 {
		log.Printf("[IMPORT] document %s déjà importé, ignoré", doc.ID)
		return nil
	}

	user, err := im.resolveUser(sub.UserToken)
	if err != nil {
		return err
	}

	initial, err := im.catalog.InitialSignalement()
	if err != nil {
		return err
	}

	now := im.now()
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	// Rapatriement des images avant la transaction: un téléchargement en échec
	// fait échouer l'import de CE signalement (le texte seul, sans ses photos,
	// serait un import silencieusement amputé).
	var refs []images.LocalImageRef
	for _, img := range sub.Images {
		ref, err := im.fetcher.Fetch(ctx, img.OnlinePath, user.ID, img.FileName)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
	}

	return im.db.Transaction(func(tx *gorm.DB) error {
		point := models.Point{X: sub.X, Y: sub.Y, Localisation: sub.Localisation}
		if err := tx.Create(&point).Error; err != nil {
			return fmt.Errorf("création point: %w", err)
		}

		s := models.Signalement{
			UserID:      user.ID,
			PointID:     point.ID,
			Description: sub.Description,
			SourceDocID: doc.ID,
			CreatedAt:   createdAt,
			StatusID:    initial.ID,
			Published:   false,
		}
		if err := tx.Create(&s).Error; err != nil {
			return fmt.Errorf("création signalement: %w", err)
		}

		history := models.SignalementHistory{
			SignalementID: s.ID,
			StatusID:      initial.ID,
			ChangedAt:     now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("création historique: %w", err)
		}

		for _, ref := range refs {
			img := models.SignalementImage{
				SignalementID: s.ID,
				CheminOnline:  ref.RemoteURL,
				CheminLocal:   ref.LocalPath,
				NomFichier:    ref.FileName,
				CreatedAt:     now,
			}
			if err := tx.Create(&img).Error; err != nil {
				return fmt.Errorf("création image: %w", err)
			}
		}
		return nil
	})
}

// resolveUser retrouve le soumetteur par son UID fournisseur, sinon retombe
// sur l'utilisateur par défaut configuré.
func (im *Importer) resolveUser(token string) (models.User, error) {
	var user models.User
	if token != "" {
		err := im.db.Where("provider_uid = ?", token).First(&user).Error
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return user, fmt.Errorf("recherche utilisateur par token: %w", err)
		}
	}
	if err := im.db.First(&user, im.defaultUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, &NotFoundError{Entity: "utilisateur par défaut", Key: fmt.Sprintf("id=%d", im.defaultUserID)}
		}
		return user, err
	}
	return user, nil
}
