package repository

import "codebattle/internal/storage"

type Repositories struct {
	User    UserRepository
	Problem ProblemRepository
	Match   MatchRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Problem: NewProblemRepository(db),
		Match:   NewMatchRepository(db),
	}
}
