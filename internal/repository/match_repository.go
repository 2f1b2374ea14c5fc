package repository

import (
	"codebattle/internal/models"
	"codebattle/internal/storage"
)

type MatchRepository interface {
	Create(match *models.Match) error
	FindByWinner(userID uint) ([]models.Match, error)
}

type matchRepository struct {
	db *storage.PostgresDB
}

func NewMatchRepository(db *storage.PostgresDB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(match *models.Match) error {
	return r.db.Create(match).Error
}

func (r *matchRepository) FindByWinner(userID uint) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.Where("winner_id = ?", userID).Order("created_at DESC").Find(&matches).Error
	return matches, err
}
