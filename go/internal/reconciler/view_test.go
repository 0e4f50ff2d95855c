package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/partyroom/go/internal/models"
)

func TestDerive_Empty(t *testing.T) {
	v := Derive(nil, "P-1", nil)
	assert.Equal(t, "P-1", v.Self.ID)
	assert.False(t, v.Self.Joined)
	assert.Empty(t, v.Players)
}

func TestDerive_PlayersAndProgress(t *testing.T) {
	s := snap(models.ModeSympathy, models.PhaseAnswering, 0)
	s.Players = map[string]models.Player{
		"P-1": {PlayerID: "P-1", Name: "Aki", Score: 3, HasAnswered: true, ShuffleRemaining: 1},
		"P-2": {PlayerID: "P-2", Name: "Ben", Score: 5},
		"P-3": {PlayerID: "P-3", Name: "Cho", Score: 3, HasAnswered: true},
		"P-4": {PlayerID: "P-4", Name: "Dan", Score: 0},
	}

	v := Derive(s, "P-3", nil)

	var order []string
	for _, p := range v.Players {
		order = append(order, p.Name)
	}
	assert.Equal(t, []string{"Ben", "Aki", "Cho", "Dan"}, order)
	assert.Equal(t, 2, v.AnsweredCount)
	assert.Equal(t, 50, v.ProgressPercent)

	assert.True(t, v.Self.Joined)
	assert.Equal(t, "Cho", v.Self.Name)
	assert.Equal(t, 3, v.Self.Rank)
	assert.True(t, v.Self.HasAnswered)
}

func TestDerive_GroupsAndSympathyResult(t *testing.T) {
	s := snap(models.ModeSympathy, models.PhaseResult, 3)
	s.BombOwnerID = "P-3"
	s.SpeedStarID = "P-1"
	s.Answers = map[string]models.Answer{
		"a1": {AnswerID: "a1", GroupID: "a1", NormalizedText: "apple", Timestamp: 1},
		"a2": {AnswerID: "a2", GroupID: "a1", NormalizedText: "Apple", Timestamp: 2},
		"a3": {AnswerID: "a3", GroupID: "a3", NormalizedText: "pear", Timestamp: 3},
	}

	v := Derive(s, "HOST-1", nil)

	require.Len(t, v.Groups, 2)
	assert.Equal(t, "a1", v.Groups[0].GroupID)
	assert.Equal(t, "apple", v.Groups[0].Text)
	assert.Len(t, v.Groups[0].Answers, 2)

	require.NotNil(t, v.Result)
	assert.Equal(t, "apple", v.Result.MajorityText)
	assert.Equal(t, 2, v.Result.MajorityCount)
	assert.Equal(t, "player3", v.Result.BombOwnerName)
	assert.Equal(t, "player1", v.Result.SpeedStarName)
	assert.False(t, v.Self.Joined, "the host is not a player")
}

func TestDerive_WordWolf(t *testing.T) {
	s := snap(models.ModeWordWolf, models.PhaseResult, 3)
	s.State = &models.WordWolfState{
		WolfIDs:       []string{"P-2"},
		Topics:        map[string]string{"P-1": "cat", "P-2": "dog"},
		WolfWon:       true,
		WolfName:      "player2",
		MajorityTopic: "cat",
		MinorityTopic: "dog",
	}

	v := Derive(s, "P-2", nil)
	assert.True(t, v.Self.IsWolf)
	assert.Equal(t, "dog", v.Self.Topic)
	require.NotNil(t, v.Result)
	assert.True(t, v.Result.WolfWon)
	assert.Equal(t, "player2", v.Result.WolfName)
}

func TestDerive_Sekai(t *testing.T) {
	s := snap(models.ModeSekaiNoMikata, models.PhaseJudging, 3)
	s.State = &models.SekaiState{
		CurrentReaderID: "P-2",
		CurrentQuestion: "a hero is ___",
		WordChoices:     map[string][]string{"P-1": {"brave", "late"}},
		SubmittedAnswers: map[string]models.SekaiAnswer{
			"P-1": {AnswerID: "s1", PlayerID: "P-1", Text: "brave"},
		},
		AllAnswersForDisplay: []models.SekaiAnswer{
			{AnswerID: "s1", PlayerID: "P-1", Text: "brave"},
			{AnswerID: "d1", Text: "soup", IsDummy: true},
		},
		SelectedAnswerID: "s1",
		RoundNumber:      2,
	}

	v := Derive(s, "P-1", nil)
	require.NotNil(t, v.Sekai)
	assert.Equal(t, "player2", v.Sekai.ReaderName)
	assert.False(t, v.Sekai.IsReader)
	assert.Equal(t, []string{"brave", "late"}, v.Sekai.Choices)
	assert.Equal(t, 1, v.Sekai.Submitted)
	require.NotNil(t, v.Sekai.Selected)
	assert.Equal(t, "brave", v.Sekai.Selected.Text)
}

func TestDerive_ItoAndWerewolf(t *testing.T) {
	ito := itoSnap(false, true)
	ito.State.(*models.ItoState).PlayerNumbers = map[string]int{"P-1": 42}

	v := Derive(ito, "P-1", nil)
	require.NotNil(t, v.Ito)
	assert.Equal(t, 42, v.Ito.OwnNumber)
	assert.Equal(t, 2, v.Ito.Played)
	assert.Equal(t, 1, v.Ito.Failed)

	wolf := wolfSnap(models.PhaseAnswering, models.NightThief, "P-1", "P-3")
	wolf.State.(*models.WerewolfState).NightInfo = map[string]string{"P-3": "swapped with player1"}

	v = Derive(wolf, "P-3", &models.PeekResult{Target: "P-1", Result: "WEREWOLF"})
	require.NotNil(t, v.Werewolf)
	assert.Equal(t, models.RoleThief, v.Werewolf.OwnRole)
	assert.Equal(t, "swapped with player1", v.Werewolf.OwnNightInfo)
	assert.True(t, v.Werewolf.ActionDone)
	assert.Equal(t, 2, v.Werewolf.ActionsDone)
	require.NotNil(t, v.Peek)
	assert.Equal(t, "P-1", v.Peek.Target)
}
