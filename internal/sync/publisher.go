package sync

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/projet-lalana/backend/internal/docstore"
	"github.com/projet-lalana/backend/internal/models"
	"github.com/projet-lalana/backend/internal/status"

	"gorm.io/gorm"
)

// Un token push vaut ~150 caractères là où un UID fournisseur en fait 28:
// en dessous de ce seuil on considère que le champ cache un UID et on va
// chercher le vrai token dans push_tokens/{uid}. Heuristique fragile mais
// héritée du comportement en production; centralisée ici, nulle part ailleurs.
const pushTokenMinLen = 50

func looksLikeProviderUID(token string) bool { return len(token) < pushTokenMinLen }

// Publisher pousse vers le document store les enregistrements autoritaires
// pas encore visibles à l'extérieur.
type Publisher struct {
	db      *gorm.DB
	store   docstore.Store
	outbox  *Outbox
	catalog *status.Catalog
}

func NewPublisher(db *gorm.DB, store docstore.Store, outbox *Outbox, catalog *status.Catalog) *Publisher {
	return &Publisher{db: db, store: store, outbox: outbox, catalog: catalog}
}

// PublishReports publie les signalements nouvellement créés (statut à la
// valeur initiale, jamais publiés). Un échec sur un enregistrement n'empêche
// pas la publication des suivants. Renvoie le nombre de publications réussies.
func (p *Publisher) PublishReports(ctx context.Context) (int, error) {
	var statusIDs []uint
	if err := p.db.Model(&models.SignalementStatus{}).
		Where("valeur <= ?", p.catalog.InitialValeur(status.KindSignalement)).
		Pluck("id", &statusIDs).Error; err != nil {
		return 0, fmt.Errorf("statuts initiaux signalement: %w", err)
	}

	var rows []models.Signalement
	if err := p.db.Preload("User").Preload("Point").Preload("Status").Preload("Images").
		Where("status_id IN ? AND published = ?", statusIDs, false).
		Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("signalements à publier: %w", err)
	}

	published := 0
	for i := range rows {
		if err := p.publishReport(ctx, &rows[i]); err != nil {
			log.Printf("[PUBLISH] signalement id=%d sauté: %v", rows[i].ID, err)
			continue
		}
		published++
	}
	log.Printf("[PUBLISH] %d signalement(s) publié(s) sur %d", published, len(rows))
	return published, nil
}

func (p *Publisher) publishReport(ctx context.Context, s *models.Signalement) error {
	doc := docstore.PublishedReport{
		ID:            s.ID,
		UserID:        s.UserID,
		UserToken:     s.User.ProviderUID,
		X:             s.Point.X,
		Y:             s.Point.Y,
		Localisation:  s.Point.Localisation,
		Description:   s.Description,
		CreatedAt:     s.CreatedAt,
		StatusLibelle: s.Status.Nom,
		Valeur:        s.Status.Valeur,
		PhotoURLs:     photoURLs(s.Images),
	}

	// Upsert sous l'id de l'enregistrement: republier est idempotent.
	docID := strconv.FormatUint(uint64(s.ID), 10)
	if err := p.store.Set(ctx, docstore.CollectionReportList, docID, doc.ToMap()); err != nil {
		return &ExternalServiceError{Service: "docstore", Op: "set " + docstore.CollectionReportList, Err: err}
	}

	if err := p.db.Model(s).Update("published", true).Error; err != nil {
		// Le document est écrit mais le drapeau n'a pas suivi: le prochain
		// cycle ré-upsertera le même document, sans effet visible.
		return fmt.Errorf("marquage publié signalement id=%d: %w", s.ID, err)
	}

	p.ensureTokenDoc(ctx, s.User)

	// Notification de création, uniquement à la première publication réussie.
	token := p.resolveToken(ctx, s.User)
	if token == "" {
		log.Printf("[PUBLISH] pas de token push pour user id=%d, notification sautée (signalement id=%d)", s.UserID, s.ID)
		return nil
	}
	p.outbox.RecordIntent(ctx, ReportCreatedIntent(s.ID, strconv.FormatUint(uint64(s.UserID), 10), token, s.Description))
	return nil
}

// PublishWorkItems publie les problèmes nouvellement créés. Même contrat que
// PublishReports; la notification de cycle de vie d'un problème est émise à la
// résolution, pas à la publication.
func (p *Publisher) PublishWorkItems(ctx context.Context) (int, error) {
	var statusIDs []uint
	if err := p.db.Model(&models.ProblemeStatus{}).
		Where("valeur <= ?", p.catalog.InitialValeur(status.KindProbleme)).
		Pluck("id", &statusIDs).Error; err != nil {
		return 0, fmt.Errorf("statuts initiaux problème: %w", err)
	}

	var rows []models.Probleme
	if err := p.db.Preload("Status").Preload("Entreprise").
		Preload("Signalement").Preload("Signalement.User").Preload("Signalement.Point").Preload("Signalement.Images").
		Where("status_id IN ? AND published = ?", statusIDs, false).
		Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("problèmes à publier: %w", err)
	}

	published := 0
	for i := range rows {
		if err := p.publishWorkItem(ctx, &rows[i]); err != nil {
			log.Printf("[PUBLISH] problème id=%d sauté: %v", rows[i].ID, err)
			continue
		}
		published++
	}
	log.Printf("[PUBLISH] %d problème(s) publié(s) sur %d", published, len(rows))
	return published, nil
}

func (p *Publisher) publishWorkItem(ctx context.Context, pr *models.Probleme) error {
	doc := docstore.PublishedWorkItem{
		ID:             pr.ID,
		SignalementID:  pr.SignalementID,
		UserID:         pr.Signalement.UserID,
		UserEmail:      pr.Signalement.User.Email,
		Surface:        pr.Surface,
		BudgetEstime:   pr.BudgetEstime,
		Niveau:         pr.Niveau,
		EntrepriseID:   pr.EntrepriseID,
		EntrepriseName: pr.Entreprise.Nom,
		X:              pr.Signalement.Point.X,
		Y:              pr.Signalement.Point.Y,
		Localisation:   pr.Signalement.Point.Localisation,
		Description:    pr.Signalement.Description,
		CreatedAt:      pr.CreatedAt,
		StatusLibelle:  pr.Status.Nom,
		Valeur:         pr.Status.Valeur,
		PhotoURLs:      photoURLs(pr.Signalement.Images),
	}

	docID := strconv.FormatUint(uint64(pr.ID), 10)
	if err := p.store.Set(ctx, docstore.CollectionWorkItemList, docID, doc.ToMap()); err != nil {
		return &ExternalServiceError{Service: "docstore", Op: "set " + docstore.CollectionWorkItemList, Err: err}
	}
	if err := p.db.Model(pr).Update("published", true).Error; err != nil {
		return fmt.Errorf("marquage publié problème id=%d: %w", pr.ID, err)
	}
	return nil
}

// resolveToken renvoie le token push utilisable pour l'utilisateur, en allant
// le chercher dans push_tokens/{uid} quand le champ local semble être un UID.
// Chaîne vide: aucun token connu.
func (p *Publisher) resolveToken(ctx context.Context, user models.User) string {
	return resolvePushToken(ctx, p.store, user.PushToken, user.ProviderUID)
}

// ensureTokenDoc prépare push_tokens/{uid} pour que le mobile ait un document
// où déposer son token. Best-effort.
func (p *Publisher) ensureTokenDoc(ctx context.Context, user models.User) {
	if user.ProviderUID == "" {
		return
	}
	_, ok, err := p.store.Get(ctx, docstore.CollectionPushTokens, user.ProviderUID)
	if err != nil || ok {
		return
	}
	rec := docstore.TokenRecord{Token: "", LocalUserID: user.ID, UpdatedAt: time.Now()}
	if err := p.store.Set(ctx, docstore.CollectionPushTokens, user.ProviderUID, rec.ToMap()); err != nil {
		log.Printf("[PUBLISH] création push_tokens/%s: %v", user.ProviderUID, err)
	}
}

func photoURLs(imgs []models.SignalementImage) []string {
	var urls []string
	for _, img := range imgs {
		if img.CheminOnline != "" {
			urls = append(urls, img.CheminOnline)
		}
	}
	return urls
}
