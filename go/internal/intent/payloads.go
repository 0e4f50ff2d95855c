package intent

import (
	"strconv"

	"github.com/mcdev12/partyroom/go/internal/models"
)

// JoinPayload is the payload for a JOIN intent
type JoinPayload struct {
	Name string `json:"name"`
}

// StartGamePayload is the payload for a START_GAME intent
type StartGamePayload struct {
	Mode models.Mode `json:"mode"`
}

// ConfigKey names a room setting the host can change.
type ConfigKey string

const (
	ConfigSpeedStar      ConfigKey = "speed_star"
	ConfigShuffle        ConfigKey = "shuffle"
	ConfigDiscussionTime ConfigKey = "discussion_time"
	ConfigItoCoop        ConfigKey = "ito_coop"
	ConfigItoCloseCall   ConfigKey = "ito_close_call"
	ConfigWerewolfMadman ConfigKey = "werewolf_madman"
)

// UpdateConfigPayload is the payload for an UPDATE_CONFIG intent
type UpdateConfigPayload struct {
	Type  ConfigKey `json:"type"`
	Value any       `json:"value"`
}

// SubmitAnswerPayload is the payload for a SUBMIT_ANSWER intent
type SubmitAnswerPayload struct {
	Text       string `json:"text"`
	UseShuffle bool   `json:"use_shuffle"`
}

// GroupAssignment moves one answer into a group.
type GroupAssignment struct {
	GroupID string `json:"group_id"`
}

// UpdateGroupingPayload is the payload for an UPDATE_GROUPING intent
type UpdateGroupingPayload struct {
	Answers map[string]GroupAssignment `json:"answers"`
}

// VotePayload is the payload for VOTE_WOLF and WEREWOLF_VOTE intents
type VotePayload struct {
	TargetPlayerID string `json:"target_player_id"`
}

// SekaiSubmitAnswerPayload is the payload for a SEKAI_SUBMIT_ANSWER intent
type SekaiSubmitAnswerPayload struct {
	Text string `json:"text"`
}

// SekaiSelectAnswerPayload is the payload for a SEKAI_SELECT_ANSWER intent
type SekaiSelectAnswerPayload struct {
	AnswerID string `json:"answer_id"`
}

// NightActionKind is what a role does during its night phase.
type NightActionKind string

const (
	NightWerewolfConfirm NightActionKind = "werewolf_confirm"
	NightSeerLook        NightActionKind = "seer_look"
	NightThiefSwap       NightActionKind = "thief_swap"
)

// ThiefSkipTarget keeps the thief's own card.
const ThiefSkipTarget = "skip"

// GraveyardTarget is the seer target for the graveyard card at idx.
func GraveyardTarget(idx int) string {
	return "graveyard_" + strconv.Itoa(idx)
}

// NightActionPayload is the payload for a WEREWOLF_NIGHT_ACTION intent
type NightActionPayload struct {
	Action NightActionKind `json:"action"`
	Target string          `json:"target"`
}

// PeekPayload is the payload for a WEREWOLF_PEEK intent
type PeekPayload struct {
	Target string `json:"target"`
}
