// Package bot turns chat updates (commands, free text and inline-button
// callbacks) into replies. It owns no storage and no lifecycle rules: every
// decision about sessions is made by services.SessionService, and this
// package only chooses the words and buttons.
//
// The chat network client is out of scope. A transport feeds Update values
// to Dispatcher.Handle and sends the resulting Reply however it likes.
package bot

// Update is one incoming event from a chat user. Exactly one of Text or
// CallbackData is normally set.
type Update struct {
	UserID       int64  `json:"user_id"`
	FirstName    string `json:"first_name,omitempty"`
	Text         string `json:"text,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// Button is an inline button. Pressing it sends Data back as CallbackData.
type Button struct {
	Text string `json:"text"`
	Data string `json:"callback_data"`
}

// Message is one outgoing chat message with an optional button grid.
type Message struct {
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
}

// Reply is everything the bot sends back for one Update, in order.
type Reply struct {
	Messages []Message `json:"messages"`
}

func reply(msgs ...Message) Reply { return Reply{Messages: msgs} }

func text(s string, rows ...[]Button) Message {
	return Message{Text: s, Buttons: rows}
}

func row(b ...Button) []Button { return b }
