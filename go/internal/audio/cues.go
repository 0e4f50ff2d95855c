package audio

// CueKey names one short clip.
type CueKey string

const (
	CueJoin     CueKey = "join"
	CueStart    CueKey = "start"
	CueTick     CueKey = "tick"
	CueTimeUp   CueKey = "timeup"
	CueVote     CueKey = "vote"
	CueReveal   CueKey = "reveal"
	CueDecision CueKey = "decision"
	CueResult   CueKey = "result"

	CueItoReveal      CueKey = "ito_reveal"
	CueWerewolfReveal CueKey = "werewolf_reveal"
	CueCardSuccess    CueKey = "ito_success"
	CueCardFailure    CueKey = "ito_fail"

	CueNightClosingEyes CueKey = "night_closing_eyes"
	CueNightWerewolf    CueKey = "night_werewolf"
	CueNightSeer        CueKey = "night_seer"
	CueNightThief       CueKey = "night_thief"
	CueNightDone        CueKey = "night_done"
)

// CueTable maps cue keys to clip file names on the sound server.
type CueTable map[CueKey]string

// DefaultCueTable is the clip set the game server ships under /static/sounds.
func DefaultCueTable() CueTable {
	return CueTable{
		CueJoin:     "join.ogg",
		CueStart:    "start.ogg",
		CueTick:     "tick.ogg",
		CueTimeUp:   "timeup.ogg",
		CueVote:     "vote.ogg",
		CueReveal:   "reveal.ogg",
		CueDecision: "decision.ogg",
		CueResult:   "result.ogg",

		CueItoReveal:      "ito_reveal.ogg",
		CueWerewolfReveal: "werewolf_reveal.ogg",
		CueCardSuccess:    "ito_success.ogg",
		CueCardFailure:    "ito_fail.ogg",

		CueNightClosingEyes: "night_closing_eyes.ogg",
		CueNightWerewolf:    "night_werewolf.ogg",
		CueNightSeer:        "night_seer.ogg",
		CueNightThief:       "night_thief.ogg",
		CueNightDone:        "night_done.ogg",
	}
}
