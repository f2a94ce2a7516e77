package chatlog

import "time"

// Direction tags which side of the conversation produced a turn.
type Direction string

const (
	// DirectionSent marks turns sent to the customer (account manager or bot).
	DirectionSent Direction = "sent"
	// DirectionReceived marks turns received from the customer.
	DirectionReceived Direction = "received"
)

// Turn is one conversation message as the decision pipeline sees it.
type Turn struct {
	Direction Direction
	Content   string
	Timestamp time.Time
}

// TurnRecord is the persisted shape of a turn, one row per inbound or
// outbound message. The schema is owned by the chat database; this store
// only appends and reads.
type TurnRecord struct {
	ClientID    int
	ClientPhone string
	UserID      int
	UserPhone   string
	Direction   Direction
	Type        string
	Content     string
	Timestamp   time.Time
}
