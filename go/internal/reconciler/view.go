package reconciler

import (
	"sort"

	"github.com/mcdev12/partyroom/go/internal/models"
)

// View is everything the rendering layer reads, recomputed from scratch on
// every snapshot.
type View struct {
	RoomID   string            `json:"room_id"`
	Phase    models.Phase      `json:"phase"`
	Mode     models.Mode       `json:"mode"`
	Question string            `json:"question"`
	Config   models.RoomConfig `json:"config"`

	Players         []models.Player `json:"players"`
	AnsweredCount   int             `json:"answered_count"`
	ProgressPercent int             `json:"progress_percent"`
	Groups          []AnswerGroup   `json:"groups"`

	Result   *ResultView   `json:"result,omitempty"`
	Self     SelfView      `json:"self"`
	Sekai    *SekaiView    `json:"sekai,omitempty"`
	Ito      *ItoView      `json:"ito,omitempty"`
	Werewolf *WerewolfView `json:"werewolf,omitempty"`

	Peek *models.PeekResult `json:"peek,omitempty"`
}

// AnswerGroup is one cluster on the host's grouping board.
type AnswerGroup struct {
	GroupID string          `json:"group_id"`
	Text    string          `json:"text"`
	Answers []models.Answer `json:"answers"`
}

// ResultView summarizes the outcome of a round.
type ResultView struct {
	MajorityText  string `json:"majority_text,omitempty"`
	MajorityCount int    `json:"majority_count,omitempty"`
	BombOwnerName string `json:"bomb_owner_name,omitempty"`
	SpeedStarName string `json:"speed_star_name,omitempty"`
	WinnerName    string `json:"winner_name,omitempty"`

	WolfWon       bool   `json:"wolf_won,omitempty"`
	WolfName      string `json:"wolf_name,omitempty"`
	WinningReason string `json:"winning_reason,omitempty"`
	MajorityTopic string `json:"majority_topic,omitempty"`
	MinorityTopic string `json:"minority_topic,omitempty"`

	WinnerTeam string `json:"winner_team,omitempty"`
}

// SelfView is the local player's own standing.
type SelfView struct {
	ID               string `json:"id"`
	Joined           bool   `json:"joined"`
	Name             string `json:"name,omitempty"`
	Score            int    `json:"score"`
	Rank             int    `json:"rank,omitempty"`
	HasAnswered      bool   `json:"has_answered"`
	ShuffleRemaining int    `json:"shuffle_remaining"`
	IsWolf           bool   `json:"is_wolf,omitempty"`
	Topic            string `json:"topic,omitempty"`
}

type SekaiView struct {
	ReaderID   string              `json:"reader_id"`
	ReaderName string              `json:"reader_name"`
	IsReader   bool                `json:"is_reader"`
	Question   string              `json:"question"`
	Round      int                 `json:"round"`
	Choices    []string            `json:"choices,omitempty"`
	Submitted  int                 `json:"submitted"`
	Selected   *models.SekaiAnswer `json:"selected,omitempty"`
}

type ItoView struct {
	Topic     string `json:"topic"`
	Stage     int    `json:"stage"`
	Life      int    `json:"life"`
	Coop      bool   `json:"coop"`
	OwnNumber int    `json:"own_number,omitempty"`
	Played    int    `json:"played"`
	Failed    int    `json:"failed"`
	Cleared   bool   `json:"cleared"`
	GameOver  bool   `json:"game_over"`
}

type WerewolfView struct {
	NightPhase   models.NightPhase `json:"night_phase"`
	OwnRole      models.Role       `json:"own_role,omitempty"`
	OwnNightInfo string            `json:"own_night_info,omitempty"`
	ActionDone   bool              `json:"action_done"`
	ActionsDone  int               `json:"actions_done"`
	Votes        int               `json:"votes"`
}

// Derive computes the view of s for the client selfID.
func Derive(s *models.Snapshot, selfID string, peek *models.PeekResult) View {
	v := View{Self: SelfView{ID: selfID}, Peek: peek}
	if s == nil {
		return v
	}

	v.RoomID = s.RoomID
	v.Phase = s.Phase
	v.Mode = s.Mode
	v.Question = s.CurrentQuestion
	v.Config = s.Config

	v.Players = sortedPlayers(s.Players)
	for _, p := range v.Players {
		if p.HasAnswered {
			v.AnsweredCount++
		}
	}
	if len(v.Players) > 0 {
		v.ProgressPercent = v.AnsweredCount * 100 / len(v.Players)
	}
	v.Groups = groupAnswers(s.Answers)

	if me, ok := s.Players[selfID]; ok {
		v.Self.Joined = true
		v.Self.Name = me.Name
		v.Self.Score = me.Score
		v.Self.HasAnswered = me.HasAnswered
		v.Self.ShuffleRemaining = me.ShuffleRemaining
		for i, p := range v.Players {
			if p.PlayerID == selfID {
				v.Self.Rank = i + 1
				break
			}
		}
	}

	switch st := s.State.(type) {
	case *models.WordWolfState:
		if v.Self.Joined {
			v.Self.IsWolf = st.IsWolf(selfID)
			v.Self.Topic = st.Topics[selfID]
		}
		if s.Phase == models.PhaseResult {
			v.Result = &ResultView{
				WolfWon:       st.WolfWon,
				WolfName:      st.WolfName,
				WinningReason: st.WinningReason,
				MajorityTopic: st.MajorityTopic,
				MinorityTopic: st.MinorityTopic,
			}
		}
	case *models.SekaiState:
		v.Sekai = deriveSekai(s, st, selfID)
	case *models.ItoState:
		v.Ito = &ItoView{
			Topic:     st.CurrentTopic,
			Stage:     st.Stage,
			Life:      st.Life,
			Coop:      st.IsCoopMode,
			OwnNumber: st.PlayerNumbers[selfID],
			Played:    len(st.PlayedCards),
			Failed:    st.FailedCount(),
			Cleared:   st.StageCleared || st.GameCleared,
			GameOver:  st.GameOver,
		}
	case *models.WerewolfState:
		v.Werewolf = &WerewolfView{
			NightPhase:   st.NightPhase,
			OwnRole:      st.OriginalRoles[selfID],
			OwnNightInfo: st.NightInfo[selfID],
			ActionDone:   st.NightActionsDone[selfID],
			ActionsDone:  countTrue(st.NightActionsDone),
			Votes:        len(st.Votes),
		}
		if s.Phase == models.PhaseResult {
			v.Result = &ResultView{WinnerTeam: st.WinnerTeam}
		}
	}

	if s.Mode == models.ModeSympathy && s.Phase == models.PhaseResult {
		v.Result = sympathyResult(s, v.Groups)
	}
	return v
}

func sortedPlayers(m map[string]models.Player) []models.Player {
	players := make([]models.Player, 0, len(m))
	for id, p := range m {
		if p.PlayerID == "" {
			p.PlayerID = id
		}
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].PlayerID < players[j].PlayerID
	})
	return players
}

// groupAnswers clusters answers by group id, largest group first.
func groupAnswers(m map[string]models.Answer) []AnswerGroup {
	byID := make(map[string]*AnswerGroup)
	for id, a := range m {
		if a.AnswerID == "" {
			a.AnswerID = id
		}
		gid := a.GroupID
		if gid == "" {
			gid = a.AnswerID
		}
		g, ok := byID[gid]
		if !ok {
			g = &AnswerGroup{GroupID: gid}
			byID[gid] = g
		}
		g.Answers = append(g.Answers, a)
	}

	groups := make([]AnswerGroup, 0, len(byID))
	for _, g := range byID {
		sort.Slice(g.Answers, func(i, j int) bool {
			if g.Answers[i].Timestamp != g.Answers[j].Timestamp {
				return g.Answers[i].Timestamp < g.Answers[j].Timestamp
			}
			return g.Answers[i].AnswerID < g.Answers[j].AnswerID
		})
		g.Text = g.Answers[0].NormalizedText
		if g.Text == "" {
			g.Text = g.Answers[0].RawText
		}
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Answers) != len(groups[j].Answers) {
			return len(groups[i].Answers) > len(groups[j].Answers)
		}
		return groups[i].GroupID < groups[j].GroupID
	})
	return groups
}

func sympathyResult(s *models.Snapshot, groups []AnswerGroup) *ResultView {
	r := &ResultView{
		BombOwnerName: playerName(s, s.BombOwnerID),
		SpeedStarName: playerName(s, s.SpeedStarID),
		WinnerName:    playerName(s, s.WinnerID),
	}
	if len(groups) > 0 {
		r.MajorityText = groups[0].Text
		r.MajorityCount = len(groups[0].Answers)
	}
	return r
}

func deriveSekai(s *models.Snapshot, st *models.SekaiState, selfID string) *SekaiView {
	v := &SekaiView{
		ReaderID:   st.CurrentReaderID,
		ReaderName: playerName(s, st.CurrentReaderID),
		IsReader:   selfID != "" && selfID == st.CurrentReaderID,
		Question:   st.CurrentQuestion,
		Round:      st.RoundNumber,
		Choices:    st.WordChoices[selfID],
		Submitted:  len(st.SubmittedAnswers),
	}
	if a, ok := st.SelectedAnswer(); ok {
		v.Selected = &a
	}
	return v
}

func playerName(s *models.Snapshot, id string) string {
	if id == "" {
		return ""
	}
	return s.Players[id].Name
}

func countTrue(m map[string]bool) int {
	n := 0
	for _, ok := range m {
		if ok {
			n++
		}
	}
	return n
}
