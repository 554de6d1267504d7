package status

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/deejay/internal/music/state"
	"github.com/keshon/deejay/internal/music/track"
)

const (
	textLoading   = "DJ X is cookin that shit up for ya, gimme a sec"
	textQueueEnd  = "That's a wrap, you've reached the end of the queue bro."
	textStopped   = "Music's off. That's a wrap, bro."
	textInactive  = "Nobody's vibing anymore, DJ X is packing up the decks."
	liveDuration  = "LIVE"
	unknownSource = "unknown"
)

// Render maps a playback state onto the status card. It reads nothing but s, so
// equal states always produce equal payloads.
func Render(s *state.PlaybackState) Payload {
	if s.Current == nil {
		return Payload{Embed: Brand(&discordgo.MessageEmbed{Description: terminalText(s.End)})}
	}
	t := s.Current
	e := &discordgo.MessageEmbed{
		Title: t.Title,
		URL:   t.URI,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Duration", Value: durationText(*t), Inline: true},
			{Name: "Author", Value: orDash(t.Author), Inline: true},
			{Name: "Paused", Value: yesNo(s.Paused), Inline: true},
			{Name: "Repeat", Value: s.Repeat.String(), Inline: true},
			{Name: "Source", Value: sourceText(t.Source), Inline: true},
			{Name: "Shuffle", Value: onOff(s.Shuffle), Inline: true},
		},
	}
	if t.ArtworkURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.ArtworkURL}
	}
	return Payload{Embed: Brand(e), Components: controls(s)}
}

func controls(s *state.PlaybackState) []discordgo.MessageComponent {
	var row []discordgo.MessageComponent
	if s.Current.URI != "" {
		row = append(row, discordgo.Button{
			Label: "Open",
			Style: discordgo.LinkButton,
			URL:   s.Current.URI,
			Emoji: &discordgo.ComponentEmoji{Name: "🔗"},
		})
	}

	playback := discordgo.Button{
		Label:    "Pause",
		Style:    discordgo.SecondaryButton,
		CustomID: ActionTogglePlayback,
		Emoji:    &discordgo.ComponentEmoji{Name: "⏸️"},
	}
	if s.Paused {
		playback.Label = "Resume"
		playback.Style = discordgo.SuccessButton
		playback.Emoji = &discordgo.ComponentEmoji{Name: "▶️"}
	}

	row = append(row,
		playback,
		discordgo.Button{
			Label:    "Skip",
			Style:    discordgo.SecondaryButton,
			CustomID: ActionSkip,
			Emoji:    &discordgo.ComponentEmoji{Name: "⏭️"},
		},
		discordgo.Button{
			Label:    "Repeat: " + s.Repeat.String(),
			Style:    toggleStyle(s.Repeat != state.RepeatOff),
			CustomID: ActionToggleRepeat,
			Emoji:    &discordgo.ComponentEmoji{Name: "🔁"},
		},
		discordgo.Button{
			Label:    "Shuffle",
			Style:    toggleStyle(s.Shuffle),
			CustomID: ActionToggleShuffle,
			Emoji:    &discordgo.ComponentEmoji{Name: "🔀"},
		},
	)

	// Discord caps an action row at five components.
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: row},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Stop",
				Style:    discordgo.DangerButton,
				CustomID: ActionStop,
				Emoji:    &discordgo.ComponentEmoji{Name: "⏹️"},
			},
		}},
	}
}

func terminalText(r state.EndReason) string {
	switch r {
	case state.EndQueueEnded:
		return textQueueEnd
	case state.EndStopped:
		return textStopped
	case state.EndInactive:
		return textInactive
	default:
		return textLoading
	}
}

func durationText(t track.Track) string {
	if t.IsStream {
		return liveDuration
	}
	return track.FormatDuration(t.Duration)
}

func sourceText(s string) string {
	if s == "" {
		return unknownSource
	}
	return s
}

func toggleStyle(on bool) discordgo.ButtonStyle {
	if on {
		return discordgo.SuccessButton
	}
	return discordgo.SecondaryButton
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}
