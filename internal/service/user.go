package service

import (
	"codebattle/internal/models"
	"codebattle/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) CreateUser(user *models.User) error {
	return s.userRepo.Create(user)
}

func (s *UserService) GetUserByUsername(username string) (*models.User, error) {
	return s.userRepo.FindByUsername(username)
}

func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	return s.userRepo.FindByID(id)
}

// Leaderboard 依積分由高到低取前 limit 名用戶
func (s *UserService) Leaderboard(limit int) ([]models.User, error) {
	return s.userRepo.TopByPoints(limit)
}
