package models

import "time"

// Probleme est le chantier chiffré créé quand un technicien constate un
// signalement. Il ne peut pas exister sans signalement parent; sa création
// passe le signalement au statut résolu dans la même transaction.
type Probleme struct {
	ID            uint        `gorm:"primaryKey"`
	SignalementID uint        `gorm:"not null;index"`
	Signalement   Signalement `gorm:"foreignKey:SignalementID"`
	Surface       float64     `gorm:"not null"` // m²
	BudgetEstime  float64     `gorm:"not null"`
	Niveau        int         `gorm:"not null;default:1"` // gravité 1..10
	EntrepriseID  uint
	Entreprise    Entreprise `gorm:"foreignKey:EntrepriseID"`
	StatusID      uint
	Status        ProblemeStatus `gorm:"foreignKey:StatusID"`
	Published     bool           `gorm:"not null;default:false"`
	CreatedAt     time.Time
}

// ProblemeStatus: 10=nouveau, 20=en cours, 30=terminé.
type ProblemeStatus struct {
	ID     uint   `gorm:"primaryKey"`
	Nom    string `gorm:"not null"`
	Valeur int    `gorm:"not null;uniqueIndex"`
}

type ProblemeHistory struct {
	ID         uint           `gorm:"primaryKey"`
	ProblemeID uint           `gorm:"not null;index"`
	StatusID   uint           `gorm:"not null"`
	Status     ProblemeStatus `gorm:"foreignKey:StatusID"`
	ChangedAt  time.Time      `gorm:"not null"`
}

// Entreprise de travaux publics à laquelle un chantier est confié.
type Entreprise struct {
	ID      uint   `gorm:"primaryKey"`
	Nom     string `gorm:"unique;not null"`
	Contact string
}
