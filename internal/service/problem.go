package service

import (
	"codebattle/internal/models"
	"codebattle/internal/repository"
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
}

func NewProblemService(problemRepo repository.ProblemRepository) *ProblemService {
	return &ProblemService{problemRepo: problemRepo}
}

func (s *ProblemService) CreateProblem(problem *models.Problem) error {
	return s.problemRepo.Create(problem)
}

func (s *ProblemService) GetProblem(id uint) (*models.Problem, error) {
	return s.problemRepo.FindByID(id)
}

// ListProblems 列出所有題目，不帶測試資料
func (s *ProblemService) ListProblems() ([]models.Problem, error) {
	return s.problemRepo.FindAll()
}
