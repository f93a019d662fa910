package models

import "time"

// Signalement & related models
//
// Un signalement est une remontée citoyenne (nid-de-poule, chaussée dégradée...).
// Le statut courant est dénormalisé sur la ligne; chaque transition est doublée
// d'une ligne SignalementHistory, jamais modifiée ni supprimée.

type Signalement struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint
	User        User `gorm:"foreignKey:UserID"`
	PointID     uint
	Point       Point  `gorm:"foreignKey:PointID"`
	Description string `gorm:"type:text"`
	// SourceDocID est l'id du document d'inbox dont ce signalement est issu.
	// Clé d'idempotence: un même document ne peut pas être importé deux fois.
	SourceDocID string `gorm:"index"`
	CreatedAt   time.Time
	StatusID    uint
	Status      SignalementStatus  `gorm:"foreignKey:StatusID"`
	Published   bool               `gorm:"not null;default:false"` // déjà poussé vers le document store
	Images      []SignalementImage `gorm:"foreignKey:SignalementID"`
}

// SignalementStatus est une donnée de référence immuable.
// Valeur ordonne le cycle de vie: 10=nouveau, 20=technicien envoyé, 30=résolu.
type SignalementStatus struct {
	ID     uint   `gorm:"primaryKey"`
	Nom    string `gorm:"not null"`
	Valeur int    `gorm:"not null;uniqueIndex"`
}

// SignalementHistory est en append-only: une ligne par transition de statut.
type SignalementHistory struct {
	ID            uint              `gorm:"primaryKey"`
	SignalementID uint              `gorm:"not null;index"`
	StatusID      uint              `gorm:"not null"`
	Status        SignalementStatus `gorm:"foreignKey:StatusID"`
	ChangedAt     time.Time         `gorm:"not null"`
}

type Point struct {
	ID           uint    `gorm:"primaryKey"`
	X            float64 `gorm:"not null"`
	Y            float64 `gorm:"not null"`
	Localisation string  // libellé libre ("Rue Rainandriamampandry", ...)
}

// SignalementImage n'est jamais mise à jour en place: une nouvelle ligne par fichier.
// CheminOnline devient optionnel une fois le fichier rapatrié en local.
type SignalementImage struct {
	ID            uint   `gorm:"primaryKey"`
	SignalementID uint   `gorm:"not null;index"`
	CheminOnline  string // URL distante d'origine
	CheminLocal   string // chemin stable sous le répertoire d'images
	NomFichier    string
	CreatedAt     time.Time
}
