package repository

import (
	"codebattle/internal/models"
	"codebattle/internal/storage"
)

type ProblemRepository interface {
	Create(problem *models.Problem) error
	FindByID(id uint) (*models.Problem, error)
	FindAll() ([]models.Problem, error) // 列表查詢不帶測試資料
}

type problemRepository struct {
	db *storage.PostgresDB
}

func NewProblemRepository(db *storage.PostgresDB) ProblemRepository {
	return &problemRepository{db: db}
}

func (r *problemRepository) Create(problem *models.Problem) error {
	return r.db.Create(problem).Error
}

func (r *problemRepository) FindByID(id uint) (*models.Problem, error) {
	var problem models.Problem
	err := r.db.Preload("TestCases").First(&problem, id).Error
	if err != nil {
		return nil, err
	}
	return &problem, nil
}

// FindAll 查詢所有題目，測試資料不對外洩漏所以不 Preload
func (r *problemRepository) FindAll() ([]models.Problem, error) {
	var problems []models.Problem
	err := r.db.Order("created_at ASC").Find(&problems).Error
	return problems, err
}
