package models

import (
	"gorm.io/gorm"
)

// User 表示系統中的用戶
type User struct {
	gorm.Model                 // 內嵌 gorm.Model，提供 ID、CreatedAt、UpdatedAt 和 DeletedAt 字段
	Username   string          `gorm:"uniqueIndex;not null" json:"username"` // 用戶名，必須唯一
	Password   string          `gorm:"not null" json:"-"`                    // 密碼，json 序列化時會被忽略
	Wins       int             `gorm:"not null;default:0" json:"wins"`       // 勝場數
	Points     int             `gorm:"not null;default:0" json:"points"`     // 累計積分
	Solved     []SolvedProblem `gorm:"foreignKey:UserID" json:"-"`           // 已解出的題目
}

// SolvedProblem 記錄用戶已經解出的題目，同一題只計分一次
type SolvedProblem struct {
	gorm.Model
	UserID    uint `gorm:"index:idx_user_problem,unique" json:"user_id"`
	ProblemID uint `gorm:"index:idx_user_problem,unique" json:"problem_id"`
}

// HasSolved 檢查用戶是否已經解出指定題目
func (u *User) HasSolved(problemID uint) bool {
	for _, s := range u.Solved {
		if s.ProblemID == problemID {
			return true
		}
	}
	return false
}
