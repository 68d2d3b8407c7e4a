package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserChoice - неизменяемое событие: какой вариант выбрал пользователь в сцене.
// Ссылки на game_id/scene_id не проверяются на уровне БД.
type UserChoice struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID    string             `bson:"session_id" json:"session_id" validate:"required"`
	GameID       string             `bson:"game_id" json:"game_id" validate:"required"`
	SceneID      string             `bson:"scene_id" json:"scene_id" validate:"required"`
	ChosenOption string             `bson:"chosen_option" json:"chosen_option" validate:"required"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	IPAddress    string             `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	Country      string             `bson:"country,omitempty" json:"country,omitempty"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
}

// ChoiceInput is the client payload for a choice event.
type ChoiceInput struct {
	SessionID    string     `json:"session_id"`
	GameID       string     `json:"game_id"`
	SceneID      string     `json:"scene_id"`
	ChosenOption string     `json:"chosen_option"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	Country      string     `json:"country,omitempty"`
	City         string     `json:"city,omitempty"`
}

// GeoLocation - данные о клиенте, полученные из запроса.
type GeoLocation struct {
	IP      string `json:"ip,omitempty"`
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}

// OptionCount - сколько раз выбрали вариант в сцене.
type OptionCount struct {
	SceneID      string    `bson:"scene_id" json:"scene_id"`
	ChosenOption string    `bson:"chosen_option" json:"chosen_option"`
	Count        int64     `bson:"count" json:"count"`
	LastChosenAt time.Time `bson:"last_chosen_at" json:"last_chosen_at"`
}

// SceneStats aggregates option counts for one scene.
type SceneStats struct {
	SceneID string           `json:"scene_id"`
	Total   int64            `json:"total"`
	Options map[string]int64 `json:"options"`
}
