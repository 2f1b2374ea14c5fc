package models

import (
	"gorm.io/gorm"
)

// Problem 表示一道對戰題目
type Problem struct {
	gorm.Model
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Difficulty  Difficulty `gorm:"type:varchar(20);not null" json:"difficulty"`
	TestCases   []TestCase `gorm:"foreignKey:ProblemID" json:"test_cases,omitempty"`
}

// TestCase 表示題目的一組測試資料
type TestCase struct {
	gorm.Model
	ProblemID      uint   `json:"problem_id"`
	Input          string `gorm:"type:text" json:"input"`
	ExpectedOutput string `gorm:"type:text" json:"expected_output"`
}

// Difficulty 定義題目難度的類型
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Points 回傳解出該難度題目可獲得的積分
func (d Difficulty) Points() int {
	switch d {
	case DifficultyHard:
		return 20
	case DifficultyMedium:
		return 10
	default:
		return 5
	}
}
