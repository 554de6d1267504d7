package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/deejay/internal/music/status"
)

// Embed returns a branded embed with the given description.
func Embed(description string) *discordgo.MessageEmbed {
	return status.Brand(&discordgo.MessageEmbed{Description: description})
}

// --- Interaction responses ---

// RespondEmbed sends a public embed response to an interaction.
func RespondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{status.Brand(embed)}},
	})
}

// RespondEmbedEphemeral sends an ephemeral embed response to an interaction.
func RespondEmbedEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{status.Brand(embed)},
		},
	})
}

// RespondEphemeral sends a branded ephemeral text reply.
func RespondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, text string) error {
	return RespondEmbedEphemeral(s, i, Embed(text))
}

// RespondDeferredEphemeral acknowledges an interaction ephemerally without an immediate reply.
func RespondDeferredEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

// RespondDeferredUpdate acknowledges a button press without touching its message.
func RespondDeferredUpdate(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// EditResponseEmbed replaces the deferred response with embed.
func EditResponseEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	embeds := []*discordgo.MessageEmbed{status.Brand(embed)}
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds})
	return err
}

// EditResponse replaces the deferred response with a branded text embed.
func EditResponse(s *discordgo.Session, i *discordgo.InteractionCreate, text string) error {
	return EditResponseEmbed(s, i, Embed(text))
}

// InteractionUser returns whoever triggered i, inside or outside a guild.
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{ID: "0", Username: "Unknown"}
}
