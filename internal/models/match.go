package models

import (
	"gorm.io/gorm"
)

// Match 記錄一場已完成的對戰結果
type Match struct {
	gorm.Model
	ProblemID     uint   `gorm:"not null" json:"problem_id"`
	WinnerID      uint   `gorm:"not null" json:"winner_id"`
	CodeSubmitted string `gorm:"type:text" json:"code_submitted"`
}
