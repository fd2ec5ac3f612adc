package bot

// Commands and the callback data of the matching menu buttons.
const (
	cmdStart   = "/start"
	cmdHelp    = "/help"
	cmdSleep   = "/sleep"
	cmdWake    = "/wake"
	cmdQuality = "/quality"
	cmdNotes   = "/notes"
	cmdRecom   = "/recom"
	cmdStatis  = "/statis"

	qualityPrefix = "quality_"
)

var (
	btnSleep   = Button{Text: "Sweet dreams 😴", Data: cmdSleep}
	btnWake    = Button{Text: "I'm awake ☀", Data: cmdWake}
	btnQuality = Button{Text: "Sleep quality 💫", Data: cmdQuality}
	btnNotes   = Button{Text: "Notes 📝", Data: cmdNotes}
	btnRecom   = Button{Text: "Sleep tips 🧘", Data: cmdRecom}
	btnStatis  = Button{Text: "Sleep statistics 📊", Data: cmdStatis}
)

func menu() [][]Button {
	return [][]Button{
		row(btnSleep, btnWake),
		row(btnQuality, btnNotes),
		row(btnRecom),
		row(btnStatis),
	}
}

const commandList = `/sleep - start a sleep session. Use it when you go to bed.
/wake - end the sleep session. Use it when you wake up.
/quality - rate your sleep from 1 to 5.
/notes - add a comment to your rating.
/recom - general tips for better sleep (/recom <topic> to search them).
/statis - your sleep statistics: number of sessions, total and average sleep.
/help - show this list.
/start - restart the bot.

You can rate your sleep and comment on it only on the day the session ended.`

// Plain replies. Templates that take numbers are in the printer calls.
const (
	msgHelpHeader    = "Available commands:\n"
	msgAlreadyOpen   = "You already have an active sleep session 😴\nEnd it first by marking that you woke up."
	msgSleepStarted  = "Bedtime noted. Sweet dreams! ✨\nDon't forget to mark when you wake up."
	msgMarkWake      = "Mark your wake-up:"
	msgNoOpen        = "First mark when you went to bed 😊"
	msgRatePrompt    = "Rate now:"
	msgNothingToRate = "First mark that you woke up, or you have already rated your last sleep 😊"
	msgNoRated       = "There is no rated sleep session today to add a note to. Please rate your sleep first 😊"
	msgAskNote       = "Please write a comment on your rating in one message, I'm taking notes! 😊"
	msgNoteSaved     = "Thanks, your comment is saved! ✅"
	msgEmptyNote     = "The note is empty. Please write a few words."
	msgNoData        = "You have no sleep data yet 🙃"
	msgTipsHeader    = "✨ General tips for better sleep:\n\n"
	msgBadButton     = "Sorry, that button is no longer valid 😔"
	msgUnknown       = "Sorry, I don't understand you 😔\nPlease use the buttons or commands 😊"
	msgTryAgain      = "Sorry, something went wrong. Please try again 😔"
)

const qualityScale = `Please rate the quality of your sleep today!

The score doesn't have to match the description exactly. Pick the closest one and put the details in a note.

1️⃣ Slept terribly. I feel crushed and exhausted.
2️⃣ Slept badly and very lightly. I want to go back to bed.
3️⃣ Took a long time to fall asleep, but slept fine overall.
4️⃣ Slept well, but wouldn't mind staying in bed a bit longer.
5️⃣ Slept great, well rested and feeling excellent!`
