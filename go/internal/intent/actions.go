package intent

// Action is the type of an outbound message.
type Action string

const (
	ActionJoin         Action = "JOIN"
	ActionStartGame    Action = "START_GAME"
	ActionUpdateConfig Action = "UPDATE_CONFIG"
	ActionResetGame    Action = "RESET_GAME"
	ActionStartRound   Action = "START_ROUND"
	ActionNextRound    Action = "NEXT_ROUND"

	ActionSubmitAnswer   Action = "SUBMIT_ANSWER"
	ActionSkipToJudging  Action = "SKIP_TO_JUDGING"
	ActionUpdateGrouping Action = "UPDATE_GROUPING"
	ActionFinishJudging  Action = "FINISH_JUDGING"

	ActionStartDiscussion Action = "START_DISCUSSION"
	ActionVoteWolf        Action = "VOTE_WOLF"

	ActionSekaiSubmitAnswer Action = "SEKAI_SUBMIT_ANSWER"
	ActionSekaiSelectAnswer Action = "SEKAI_SELECT_ANSWER"
	ActionSekaiNextRound    Action = "SEKAI_NEXT_ROUND"

	ActionItoPlayCard   Action = "ITO_PLAY_CARD"
	ActionItoNextStage  Action = "ITO_NEXT_STAGE"
	ActionItoShowResult Action = "ITO_SHOW_RESULT"

	ActionWerewolfStartNight      Action = "WEREWOLF_START_NIGHT"
	ActionWerewolfAdvanceNight    Action = "WEREWOLF_ADVANCE_NIGHT"
	ActionWerewolfNightAction     Action = "WEREWOLF_NIGHT_ACTION"
	ActionWerewolfPeek            Action = "WEREWOLF_PEEK"
	ActionWerewolfStartDiscussion Action = "WEREWOLF_START_DISCUSSION"
	ActionWerewolfVote            Action = "WEREWOLF_VOTE"
	ActionWerewolfFinishVoting    Action = "WEREWOLF_FINISH_VOTING"
)

var known = map[Action]struct{}{
	ActionJoin: {}, ActionStartGame: {}, ActionUpdateConfig: {}, ActionResetGame: {},
	ActionStartRound: {}, ActionNextRound: {}, ActionSubmitAnswer: {}, ActionSkipToJudging: {},
	ActionUpdateGrouping: {}, ActionFinishJudging: {}, ActionStartDiscussion: {}, ActionVoteWolf: {},
	ActionSekaiSubmitAnswer: {}, ActionSekaiSelectAnswer: {}, ActionSekaiNextRound: {},
	ActionItoPlayCard: {}, ActionItoNextStage: {}, ActionItoShowResult: {},
	ActionWerewolfStartNight: {}, ActionWerewolfAdvanceNight: {}, ActionWerewolfNightAction: {},
	ActionWerewolfPeek: {}, ActionWerewolfStartDiscussion: {}, ActionWerewolfVote: {},
	ActionWerewolfFinishVoting: {},
}

// Known reports whether the server understands a.
func (a Action) Known() bool {
	_, ok := known[a]
	return ok
}
