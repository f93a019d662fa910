package sync

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/projet-lalana/backend/internal/identity"
	"github.com/projet-lalana/backend/internal/models"
	"github.com/projet-lalana/backend/internal/services"

	"gorm.io/gorm"
)

// Reconciler aligne l'état bloqué/débloqué des comptes entre le fournisseur
// d'identité et le magasin autoritaire, dans les deux sens. Ce service est la
// source de vérité sur QUELS utilisateurs doivent exister; le fournisseur l'est
// sur l'état disabled constaté côté mobile.
type Reconciler struct {
	db       *gorm.DB
	provider identity.Provider
	now      func() time.Time
}

func NewReconciler(db *gorm.DB, provider identity.Provider) *Reconciler {
	return &Reconciler{db: db, provider: provider, now: time.Now}
}

// ReconcileResult résume une passe entrante.
type ReconcileResult struct {
	Blocked int // utilisateurs locaux passés bloqués suite à un disabled amont
	Linked  int // UID fournisseur renseignés sur des utilisateurs locaux
	Deleted int // comptes fournisseur orphelins supprimés
}

// Inbound parcourt tous les comptes du fournisseur. Compte orphelin (aucun
// utilisateur local par email ni par UID): supprimé côté fournisseur.
// Compte apparié: UID recopié si absent; s'il est disabled et que le dernier
// état local n'est pas déjà bloqué, une transition bloqué est enregistrée.
// Un échec sur un compte est journalisé et n'arrête pas les suivants.
func (r *Reconciler) Inbound(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	accounts, err := r.provider.ListAccounts(ctx)
	if err != nil {
		return res, &ExternalServiceError{Service: "identity", Op: "list accounts", Err: err}
	}

	for _, acc := range accounts {
		if err := r.inboundOne(ctx, acc, &res); err != nil {
			log.Printf("[RECONCILE] compte uid=%s sauté: %v", acc.UID, err)
		}
	}
	log.Printf("[RECONCILE] entrant: %d bloqué(s), %d lié(s), %d orphelin(s) supprimé(s)", res.Blocked, res.Linked, res.Deleted)
	return res, nil
}

func (r *Reconciler) inboundOne(ctx context.Context, acc identity.Account, res *ReconcileResult) error {
	var user models.User
	err := r.db.Where("email = ?", acc.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Pas d'utilisateur par email; un compte encore référencé par UID
		// (email changé localement) n'est pas orphelin.
		err = r.db.Where("provider_uid = ?", acc.UID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if delErr := r.provider.DeleteAccount(ctx, acc.UID); delErr != nil {
				return &ExternalServiceError{Service: "identity", Op: "delete " + acc.UID, Err: delErr}
			}
			log.Printf("[RECONCILE] compte fournisseur orphelin supprimé uid=%s email=%s", acc.UID, acc.Email)
			res.Deleted++
			return nil
		}
	}
	if err != nil {
		return err
	}

	if user.ProviderUID == "" && acc.UID != "" {
		if err := r.db.Model(&user).Update("provider_uid", acc.UID).Error; err != nil {
			return err
		}
		user.ProviderUID = acc.UID
		res.Linked++
	}

	if !acc.Disabled {
		return nil
	}
	last, err := services.LastUserStatus(r.db, user.ID)
	if err != nil {
		return err
	}
	if last == models.UserBlocked {
		return nil
	}
	// syncedOutward=true: l'état bloqué vient du fournisseur, rien à repousser.
	if _, err := services.TransitionUserStatus(r.db, user.ID, models.UserBlocked, r.now(), true); err != nil {
		return err
	}
	log.Printf("[RECONCILE] utilisateur id=%d bloqué suite à disabled amont (uid=%s)", user.ID, acc.UID)
	res.Blocked++
	return nil
}

// Outbound réactive côté fournisseur les utilisateurs locaux débloqués dont la
// réactivation n'a pas encore été poussée. Le drapeau SyncedOutward évite de
// rappeler enable à chaque cycle; un déblocage local le remet à false.
// Renvoie le nombre de réactivations poussées.
func (r *Reconciler) Outbound(ctx context.Context) (int, error) {
	var users []models.User
	if err := r.db.Where("provider_uid <> '' AND current_status = ? AND synced_outward = ?", models.UserUnblocked, false).
		Find(&users).Error; err != nil {
		return 0, err
	}

	pushed := 0
	for _, user := range users {
		if err := r.provider.EnableAccount(ctx, user.ProviderUID); err != nil {
			log.Printf("[RECONCILE] réactivation uid=%s impossible: %v", user.ProviderUID, err)
			continue
		}
		if err := r.db.Model(&models.User{}).Where("id = ?", user.ID).Update("synced_outward", true).Error; err != nil {
			log.Printf("[RECONCILE] marquage synced_outward user id=%d: %v", user.ID, err)
			continue
		}
		log.Printf("[RECONCILE] compte fournisseur uid=%s réactivé (user id=%d)", user.ProviderUID, user.ID)
		pushed++
	}
	return pushed, nil
}
