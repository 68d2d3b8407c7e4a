package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScene(id string) Scene {
	return Scene{
		SceneID:  id,
		ImageURL: "https://cdn.example.com/" + id + ".webp",
		Title:    "Scene " + id,
		Comment:  "What would you do?",
		Options: []Option{
			{Label: "Help", RefValor: "empathy"},
			{Label: "Walk away", RefValor: "autonomy"},
		},
	}
}

func validDeck() *GameDeck {
	return &GameDeck{
		GameID:      "trolley-classic",
		Version:     "1.0.0",
		Title:       "Trolley",
		Description: "Classic dilemmas",
		Scenes:      []Scene{validScene("s1"), validScene("s2")},
		Active:      true,
	}
}

func TestValidateDeck(t *testing.T) {
	t.Run("Valid deck", func(t *testing.T) {
		res := ValidateDeck(validDeck())
		assert.True(t, res.Valid())
		assert.NoError(t, res.Err())
	})

	t.Run("Deck without scenes is valid", func(t *testing.T) {
		d := validDeck()
		d.Scenes = nil
		assert.True(t, ValidateDeck(d).Valid())
	})

	for _, n := range []int{0, 1, 3} {
		n := n
		t.Run(fmt.Sprintf("Scene with %d options is rejected", n), func(t *testing.T) {
			d := validDeck()
			opts := make([]Option, n)
			for i := range opts {
				opts[i] = Option{Label: "l", RefValor: "v"}
			}
			d.Scenes[1].Options = opts

			res := ValidateDeck(d)
			require.False(t, res.Valid(), "options=%d", n)
			require.Len(t, res.Violations, 1)
			assert.Equal(t, "scenes[1].options", res.Violations[0].Field)
			assert.Equal(t, "len", res.Violations[0].Rule)
			assert.Equal(t, "must contain exactly 2 items", res.Violations[0].Message)
		})
	}

	t.Run("Missing required fields are all reported", func(t *testing.T) {
		d := validDeck()
		d.GameID = ""
		d.Title = ""
		d.Scenes[0].ImageURL = ""
		d.Scenes[0].Options[1].RefValor = ""

		res := ValidateDeck(d)
		require.False(t, res.Valid())
		fields := make([]string, 0, len(res.Violations))
		for _, v := range res.Violations {
			fields = append(fields, v.Field)
			assert.Equal(t, "required", v.Rule)
		}
		assert.ElementsMatch(t, []string{"game_id", "title", "scenes[0].image_url", "scenes[0].options[1].ref_valor"}, fields)
	})

	t.Run("Err wraps ErrValidation", func(t *testing.T) {
		d := validDeck()
		d.Version = ""
		err := ValidateDeck(d).Err()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))
		assert.Contains(t, err.Error(), "version is required")
		assert.Len(t, ViolationsOf(err), 1)
	})

	t.Run("Nil deck", func(t *testing.T) {
		assert.False(t, ValidateDeck(nil).Valid())
	})
}

func TestValidateChoice(t *testing.T) {
	choice := func() *UserChoice {
		return &UserChoice{SessionID: "sess", GameID: "g", SceneID: "s1", ChosenOption: "empathy"}
	}

	t.Run("Geo fields are optional", func(t *testing.T) {
		assert.True(t, ValidateChoice(choice()).Valid())
	})

	t.Run("Missing chosen_option is rejected", func(t *testing.T) {
		c := choice()
		c.ChosenOption = ""
		res := ValidateChoice(c)
		require.Len(t, res.Violations, 1)
		assert.Equal(t, "chosen_option", res.Violations[0].Field)
	})
}

func TestDeckInputToDeck(t *testing.T) {
	d := DeckInput{GameID: "g"}.ToDeck()
	assert.True(t, d.Active)
	assert.NotNil(t, d.Scenes)

	inactive := false
	d = DeckInput{GameID: "g", Active: &inactive}.ToDeck()
	assert.False(t, d.Active)
}

func TestFindScene(t *testing.T) {
	d := validDeck()
	s, ok := d.FindScene("s2")
	require.True(t, ok)
	assert.Equal(t, "Scene s2", s.Title)

	_, ok = d.FindScene("missing")
	assert.False(t, ok)
}
