package models

// Player is one participant of a room as the server reports it.
type Player struct {
	PlayerID         string `json:"player_id"`
	Name             string `json:"name"`
	Score            int    `json:"score"`
	HasAnswered      bool   `json:"has_answered"`
	IsConnected      bool   `json:"is_connected"`
	ShuffleRemaining int    `json:"shuffle_remaining"`
}

// Answer is one submission of the majority-guess game. Answers sharing a
// GroupID are treated as the same answer by the host's grouping board.
type Answer struct {
	AnswerID       string  `json:"answer_id"`
	PlayerID       string  `json:"player_id"`
	PlayerName     string  `json:"player_name"`
	RawText        string  `json:"raw_text"`
	NormalizedText string  `json:"normalized_text"`
	GroupID        string  `json:"group_id"`
	Timestamp      float64 `json:"timestamp"`
	UsedShuffle    bool    `json:"used_shuffle"`
}

// PeekResult is the point-to-point reply to a WEREWOLF_PEEK request.
type PeekResult struct {
	Target string `json:"target"`
	Result string `json:"result"`
}
