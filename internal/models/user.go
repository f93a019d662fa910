package models

import "time"

// user & lock-state models

// Statuts de compte dénormalisés sur User.CurrentStatus et historisés dans
// UserHistory. CurrentStatus est un cache: il doit toujours être égal au statut
// de la dernière ligne UserHistory de l'utilisateur.
const (
	UserBlocked   = 0
	UserUnblocked = 1
)

type User struct {
	ID            uint   `gorm:"primaryKey"`
	Email         string `gorm:"unique;not null;index"`
	Password      string `gorm:"not null"` // hashé (bcrypt)
	ProviderUID   string `gorm:"index"`    // UID côté fournisseur d'identité, vide tant que non lié
	CurrentStatus int    `gorm:"not null;default:1"`
	SyncedOutward bool   `gorm:"not null;default:false"` // état de blocage déjà répercuté vers le fournisseur
	PushToken     string // token de notification push, vide si inconnu
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserHistory est en append-only: une ligne par transition bloqué/débloqué,
// y compris celles détectées depuis le fournisseur d'identité.
type UserHistory struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	Status    int       `gorm:"not null"`
	ChangedAt time.Time `gorm:"not null"`
}

// LoginAttempt trace les tentatives de connexion pour la politique de
// verrouillage. Table séparée de UserHistory, qui ne porte que les
// transitions bloqué/débloqué.
type LoginAttempt struct {
	ID      uint      `gorm:"primaryKey"`
	UserID  uint      `gorm:"not null;index"`
	Success bool      `gorm:"not null"`
	At      time.Time `gorm:"not null;index"`
}
