package application

import "github.com/luca-patrignani/zkpoker/domain/poker"

// Bus topics. Handlers receive one argument of the matching event type.
const (
	TopicGameStarted   = "game:started"
	TopicGameCompleted = "game:completed"
	TopicTurnTimeout   = "turn:timeout"
)

type GameStarted struct {
	Session poker.SessionID
	Players [2]string
	Button  uint8
}

type GameCompleted struct {
	Session poker.SessionID
	Winner  poker.Outcome
	Reason  poker.EndReason
	Pot     int64
}

type TurnTimedOut struct {
	Session poker.SessionID
	Player  string
}
