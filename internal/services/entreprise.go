package services

import (
	"errors"
	"fmt"

	"github.com/projet-lalana/backend/internal/models"

	"gorm.io/gorm"
)

type EntrepriseService struct{ DB *gorm.DB }

func NewEntrepriseService(db *gorm.DB) *EntrepriseService { return &EntrepriseService{DB: db} }

func (s *EntrepriseService) GetAll() ([]models.Entreprise, error) {
	var rows []models.Entreprise
	err := s.DB.Order("nom ASC").Find(&rows).Error
	return rows, err
}

func (s *EntrepriseService) Create(nom, contact string) (*models.Entreprise, error) {
	if nom == "" {
		return nil, errors.New("nom d'entreprise vide")
	}
	e := models.Entreprise{Nom: nom, Contact: contact}
	if err := s.DB.Create(&e).Error; err != nil {
		return nil, fmt.Errorf("création entreprise: %w", err)
	}
	return &e, nil
}
