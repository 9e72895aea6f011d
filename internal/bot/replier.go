package bot

import "github.com/bwmarrin/discordgo"

// messageReplier answers a command in the channel it came from.
type messageReplier struct {
	session   *discordgo.Session
	channelID string
}

func (r messageReplier) Reply(text string) error {
	_, err := r.session.ChannelMessageSend(r.channelID, text)
	return err
}
