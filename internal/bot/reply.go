package bot

// Button is one labeled choice; Token round-trips back as a callback event.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// Broadcast is an extra message addressed to another chat, used to notify a
// group after a member scans for it via deep link.
type Broadcast struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// Reply is the transport-agnostic response to one event.
type Reply struct {
	Text      string     `json:"text"`
	Buttons   [][]Button `json:"buttons,omitempty"`
	Broadcast *Broadcast `json:"broadcast,omitempty"`
}

func textReply(text string) Reply {
	return Reply{Text: text}
}

func (r Reply) withButtonRow(buttons ...Button) Reply {
	r.Buttons = append(r.Buttons, buttons)
	return r
}
