package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/projet-lalana/backend/internal/identity"
	"github.com/projet-lalana/backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("identifiants invalides")
	ErrAccountLocked      = errors.New("compte verrouillé")
)

// UserService porte les opérations de compte: connexion avec verrouillage
// après échecs répétés, blocage/déblocage administratif.
type UserService struct {
	DB       *gorm.DB
	Provider identity.Provider

	MaxLoginAttempts int
	LockWindow       time.Duration
}

func NewUserService(db *gorm.DB, provider identity.Provider, maxAttempts int, lockWindow time.Duration) *UserService {
	return &UserService{DB: db, Provider: provider, MaxLoginAttempts: maxAttempts, LockWindow: lockWindow}
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("utilisateur introuvable id=%d", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Deblock débloque un utilisateur: nouvelle ligne d'historique, cache mis à
// jour, et drapeau de répercussion remis à false pour que le prochain cycle
// réactive le compte côté fournisseur d'identité.
func (s *UserService) Deblock(id uint) (models.UserHistory, error) {
	if _, err := s.GetByID(id); err != nil {
		return models.UserHistory{}, err
	}
	history, err := TransitionUserStatus(s.DB, id, models.UserUnblocked, time.Now(), false)
	if err != nil {
		return history, err
	}
	log.Printf("[USER] utilisateur id=%d débloqué (history id=%d)", id, history.ID)
	return history, nil
}

// Block bloque un utilisateur localement puis désactive le compte fournisseur.
// L'échec de l'appel fournisseur est journalisé sans annuler le blocage local:
// le magasin autoritaire reste la vérité sur l'état voulu.
func (s *UserService) Block(ctx context.Context, id uint) (models.UserHistory, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return models.UserHistory{}, err
	}
	history, err := TransitionUserStatus(s.DB, id, models.UserBlocked, time.Now(), true)
	if err != nil {
		return history, err
	}
	if user.ProviderUID != "" && s.Provider != nil {
		if err := s.Provider.DisableAccount(ctx, user.ProviderUID); err != nil {
			log.Printf("[USER] désactivation fournisseur uid=%s impossible: %v", user.ProviderUID, err)
		}
	}
	log.Printf("[USER] utilisateur id=%d bloqué (history id=%d)", id, history.ID)
	return history, nil
}

// Login vérifie les identifiants. Au-delà de MaxLoginAttempts échecs dans la
// fenêtre configurée, le compte est bloqué (localement et côté fournisseur).
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.CurrentStatus == models.UserBlocked {
		return nil, ErrAccountLocked
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		now := time.Now()
		if err := s.DB.Create(&models.LoginAttempt{UserID: user.ID, Success: false, At: now}).Error; err != nil {
			return nil, err
		}
		var failures int64
		if err := s.DB.Model(&models.LoginAttempt{}).
			Where("user_id = ? AND success = ? AND at > ?", user.ID, false, now.Add(-s.LockWindow)).
			Count(&failures).Error; err != nil {
			return nil, err
		}
		if int(failures) >= s.MaxLoginAttempts {
			if _, err := s.Block(ctx, user.ID); err != nil {
				log.Printf("[USER] verrouillage après échecs répétés impossible id=%d: %v", user.ID, err)
			}
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.DB.Create(&models.LoginAttempt{UserID: user.ID, Success: true, At: time.Now()}).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// HashPassword produit le hash bcrypt stocké en base.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(hash), err
}
