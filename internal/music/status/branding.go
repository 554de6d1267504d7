package status

import "github.com/bwmarrin/discordgo"

const (
	BotName    = "DJ X"
	FooterText = "PLAYED BY DJ X"
	ImageURL   = "https://x.stele.site/img/ljdY8W.png"
	EmbedColor = 0x23272a
)

// Brand stamps the footer and colour every embed carries and returns e.
func Brand(e *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	e.Color = EmbedColor
	e.Footer = &discordgo.MessageEmbedFooter{Text: FooterText, IconURL: ImageURL}
	return e
}
