package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OptionsPerScene - у каждой сцены ровно два варианта выбора.
const OptionsPerScene = 2

// Option - один из двух вариантов ответа в сцене.
type Option struct {
	Label    string `bson:"label" json:"label" yaml:"label" validate:"required"`
	RefValor string `bson:"ref_valor" json:"ref_valor" yaml:"ref_valor" validate:"required"`
}

// Scene - точка принятия решения.
type Scene struct {
	SceneID  string   `bson:"scene_id" json:"scene_id" yaml:"scene_id" validate:"required"`
	ImageURL string   `bson:"image_url" json:"image_url" yaml:"image_url" validate:"required"`
	Title    string   `bson:"title" json:"title" yaml:"title" validate:"required"`
	Comment  string   `bson:"comment" json:"comment" yaml:"comment" validate:"required"`
	Options  []Option `bson:"options" json:"options" yaml:"options" validate:"len=2,dive"`
}

// GameDeck ("Mazo") - версионированный набор сцен одного сценария.
type GameDeck struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-" yaml:"-"`
	GameID      string             `bson:"game_id" json:"game_id" yaml:"game_id" validate:"required"`
	Version     string             `bson:"version" json:"version" yaml:"version" validate:"required"`
	Title       string             `bson:"title" json:"title" yaml:"title" validate:"required"`
	Description string             `bson:"description" json:"description" yaml:"description" validate:"required"`
	Scenes      []Scene            `bson:"scenes" json:"scenes" yaml:"scenes" validate:"dive"`
	Active      bool               `bson:"active" json:"active" yaml:"active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at" yaml:"-"`
}

// FindScene returns the scene with the given id.
func (d *GameDeck) FindScene(sceneID string) (*Scene, bool) {
	for i := range d.Scenes {
		if d.Scenes[i].SceneID == sceneID {
			return &d.Scenes[i], true
		}
	}
	return nil, false
}

// DeckInput - колода в том виде, в котором ее присылает автор (HTTP или файл импорта).
// Active не задан -> колода активна.
type DeckInput struct {
	GameID      string  `json:"game_id" yaml:"game_id"`
	Version     string  `json:"version" yaml:"version"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Scenes      []Scene `json:"scenes" yaml:"scenes"`
	Active      *bool   `json:"active,omitempty" yaml:"active,omitempty"`
}

// ToDeck converts the input into a deck, applying defaults.
func (in DeckInput) ToDeck() *GameDeck {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	scenes := in.Scenes
	if scenes == nil {
		scenes = []Scene{}
	}
	return &GameDeck{
		GameID:      in.GameID,
		Version:     in.Version,
		Title:       in.Title,
		Description: in.Description,
		Scenes:      scenes,
		Active:      active,
	}
}

// DeckSummary - колода без сцен, для списков.
type DeckSummary struct {
	GameID      string    `bson:"game_id" json:"game_id"`
	Version     string    `bson:"version" json:"version"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	SceneCount  int       `bson:"scene_count" json:"scene_count"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
