package entity

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// PlayerResult представляет результат одной попытки прохождения викторины.
// Имена не верифицируются — игроки сами указывают name/school/class.
type PlayerResult struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Name     string  `gorm:"size:50;not null" json:"name"`
	School   string  `gorm:"size:100;not null" json:"school"`
	Class    string  `gorm:"size:20;not null" json:"class"`
	Score    float64 `gorm:"not null;default:0" json:"score"`
	TimeUsed int     `gorm:"not null;default:0" json:"timeUsed"`
	Avatar   string  `gorm:"size:255;not null;default:''" json:"avatar"`

	// Likes и Liked — производные поля: likes = размер множества голосов,
	// liked вычисляется для конкретного зрителя. В БД не хранятся.
	Likes int  `gorm:"-" json:"likes"`
	Liked bool `gorm:"-" json:"liked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (PlayerResult) TableName() string {
	return "player_results"
}

// IdentityKey возвращает составной ключ идентичности игрока.
// Один реальный игрок = одна запись в лидерборде (name+school+class).
func (r *PlayerResult) IdentityKey() string {
	return strings.ToLower(strings.TrimSpace(r.Name)) + "|" +
		strings.ToLower(strings.TrimSpace(r.School)) + "|" +
		strings.ToLower(strings.TrimSpace(r.Class))
}

// Validate проверяет обязательные поля и возвращает список отсутствующих.
// score и timeUsed считаются отсутствующими, если они отрицательные.
func (r *PlayerResult) Validate() []string {
	var missing []string
	if strings.TrimSpace(r.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(r.School) == "" {
		missing = append(missing, "school")
	}
	if strings.TrimSpace(r.Class) == "" {
		missing = append(missing, "class")
	}
	if r.Score < 0 {
		missing = append(missing, "score")
	}
	if r.TimeUsed < 0 {
		missing = append(missing, "timeUsed")
	}
	return missing
}

// DeriveAvatar формирует URI аватара по имени игрока, если клиент
// не передал собственный.
func DeriveAvatar(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Player"
	}
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&size=100", url.QueryEscape(name))
}

// LikeVote представляет один голос "нравится" за результат игрока.
// Множество голосов — единственный источник правды для likes/liked:
// общий boolean на записи не может выразить "нравится зрителю A, но не B".
type LikeVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PlayerID  uint      `gorm:"not null;index;uniqueIndex:idx_player_voter" json:"player_id"`
	VoterID   string    `gorm:"size:64;not null;uniqueIndex:idx_player_voter" json:"voter_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (LikeVote) TableName() string {
	return "player_result_likes"
}
