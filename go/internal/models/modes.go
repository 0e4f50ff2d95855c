package models

// ModeState is the tagged union of mode-specific sub-states. The concrete
// type always matches Snapshot.Mode.
type ModeState interface {
	Mode() Mode
}

// WordWolfState is the sub-state of the word-association deduction game.
type WordWolfState struct {
	WolfIDs           []string          `json:"wolf_ids"`
	Topics            map[string]string `json:"topics"`
	Votes             map[string]string `json:"votes"`
	DiscussionEndTime float64           `json:"discussion_end_time"`

	WolfWon       bool   `json:"wolf_won"`
	WinningReason string `json:"winning_reason"`
	WolfName      string `json:"wolf_name"`
	MajorityTopic string `json:"majority_topic"`
	MinorityTopic string `json:"minority_topic"`
}

func (*WordWolfState) Mode() Mode { return ModeWordWolf }

// IsWolf reports whether playerID is one of the wolves.
func (w *WordWolfState) IsWolf(playerID string) bool {
	for _, id := range w.WolfIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// SekaiAnswer is one card on the reading/matching game's table.
type SekaiAnswer struct {
	AnswerID   string `json:"answer_id"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Text       string `json:"text"`
	IsDummy    bool   `json:"is_dummy"`
}

// SekaiState is the sub-state of the reading/matching game.
type SekaiState struct {
	CurrentReaderID      string                 `json:"current_reader_id"`
	ReaderOrder          []string               `json:"reader_order"`
	CurrentQuestion      string                 `json:"current_question"`
	WordChoices          map[string][]string    `json:"word_choices"`
	SubmittedAnswers     map[string]SekaiAnswer `json:"submitted_answers"`
	AllAnswersForDisplay []SekaiAnswer          `json:"all_answers_for_display"`
	SelectedAnswerID     string                 `json:"selected_answer_id"`
	RoundNumber          int                    `json:"round_number"`
	WinningScore         int                    `json:"winning_score"`
}

func (*SekaiState) Mode() Mode { return ModeSekaiNoMikata }

// SelectedAnswer returns the card the reader picked, if any.
func (s *SekaiState) SelectedAnswer() (SekaiAnswer, bool) {
	if s.SelectedAnswerID == "" {
		return SekaiAnswer{}, false
	}
	for _, a := range s.AllAnswersForDisplay {
		if a.AnswerID == s.SelectedAnswerID {
			return a, true
		}
	}
	return SekaiAnswer{}, false
}

// ItoPlayedCard is one card put on the table in the cooperative number game.
type ItoPlayedCard struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Number     int    `json:"number"`
	Order      int    `json:"order"`
	IsFailed   bool   `json:"is_failed"`
}

// ItoState is the sub-state of the cooperative numbered-card game.
type ItoState struct {
	IsCoopMode       bool            `json:"is_coop_mode"`
	CloseCall        bool            `json:"close_call_enabled"`
	CurrentTopic     string          `json:"current_topic"`
	PlayerNumbers    map[string]int  `json:"player_numbers"`
	PlayedCards      []ItoPlayedCard `json:"played_cards"`
	LastPlayedNumber int             `json:"last_played_number"`
	Stage            int             `json:"stage"`
	Life             int             `json:"life"`
	IsFailed         bool            `json:"is_failed"`
	StageCleared     bool            `json:"stage_cleared"`
	GameCleared      bool            `json:"game_cleared"`
	GameOver         bool            `json:"game_over"`
}

func (*ItoState) Mode() Mode { return ModeIto }

// FailedCount is the number of played cards flagged as failures.
func (s *ItoState) FailedCount() int {
	n := 0
	for _, c := range s.PlayedCards {
		if c.IsFailed {
			n++
		}
	}
	return n
}

// Role is a one-night werewolf role card.
type Role string

const (
	RoleVillager Role = "VILLAGER"
	RoleWerewolf Role = "WEREWOLF"
	RoleSeer     Role = "SEER"
	RoleThief    Role = "THIEF"
	RoleMadman   Role = "MADMAN"
)

// NightPhase is the tag of the werewolf night sequence.
type NightPhase string

const (
	NightWaiting     NightPhase = "WAITING"
	NightClosingEyes NightPhase = "CLOSING_EYES"
	NightWerewolf    NightPhase = "WEREWOLF"
	NightSeer        NightPhase = "SEER"
	NightThief       NightPhase = "THIEF"
	NightDone        NightPhase = "DONE"
)

// Role returns the role that acts during n, or "" for phases nobody acts in.
func (n NightPhase) Role() Role {
	switch n {
	case NightWerewolf:
		return RoleWerewolf
	case NightSeer:
		return RoleSeer
	case NightThief:
		return RoleThief
	}
	return ""
}

// WerewolfState is the sub-state of the social-deduction night game.
type WerewolfState struct {
	OriginalRoles     map[string]Role   `json:"original_roles"`
	CurrentRoles      map[string]Role   `json:"current_roles"`
	Graveyard         []Role            `json:"graveyard"`
	NightInfo         map[string]string `json:"night_info"`
	NightPhase        NightPhase        `json:"night_phase"`
	NightActionsDone  map[string]bool   `json:"night_actions_done"`
	Votes             map[string]string `json:"votes"`
	DiscussionEndTime float64           `json:"discussion_end_time"`
	WinnerTeam        string            `json:"winner_team"`
}

func (*WerewolfState) Mode() Mode { return ModeWerewolf }

// Holders returns the connected players whose dealt role is r.
func (w *WerewolfState) Holders(r Role, players map[string]Player) []string {
	var ids []string
	for id, role := range w.OriginalRoles {
		if role != r {
			continue
		}
		if p, ok := players[id]; ok && p.IsConnected {
			ids = append(ids, id)
		}
	}
	return ids
}
