package discord

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/deejay/internal/command"
	"github.com/keshon/deejay/pkg/cmd"
)

// registerCommands syncs slash commands for a guild with Discord:
// deletes obsolete ones, creates/updates commands whose definition has changed.
func (b *Bot) registerCommands(guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	remote, err := b.dg.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	local := buildCommandDefinitions(b.commands)
	hashes := b.hashes.load(guildID)

	b.deleteObsoleteCommands(appID, guildID, remote, local, hashes)
	b.upsertChangedCommands(appID, guildID, local, remote, hashes)

	return b.hashes.save(guildID, hashes)
}

// buildCommandDefinitions returns ApplicationCommand definitions for all registered commands.
func buildCommandDefinitions(reg *cmd.Registry) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range reg.GetAll() {
		if def := commandDefinition(c); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}

func (b *Bot) deleteObsoleteCommands(appID, guildID string, remote, local []*discordgo.ApplicationCommand, hashes map[string]string) {
	localNames := make(map[string]struct{}, len(local))
	for _, d := range local {
		localNames[d.Name] = struct{}{}
	}

	for _, rc := range remote {
		if _, exists := localNames[rc.Name]; exists {
			continue
		}
		log := b.log.With().Str("guild", guildID).Str("command", rc.Name).Logger()
		if err := b.dg.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
			log.Error().Err(err).Msg("failed to delete obsolete command")
			continue
		}
		delete(hashes, rc.Name)
		log.Info().Msg("deleted obsolete command")
	}
}

// upsertChangedCommands creates or updates commands whose hash differs from
// the cached value or that Discord does not know about.
func (b *Bot) upsertChangedCommands(appID, guildID string, defs, remote []*discordgo.ApplicationCommand, hashes map[string]string) {
	known := make(map[string]bool, len(remote))
	for _, rc := range remote {
		known[rc.Name] = true
	}

	var changed int
	for _, d := range defs {
		h := hashCommand(d)
		if hashes[d.Name] == h && known[d.Name] {
			continue
		}
		changed++
		if _, err := b.dg.ApplicationCommandCreate(appID, guildID, d); err != nil {
			b.log.Error().Err(err).Str("guild", guildID).Str("command", d.Name).Msg("failed to register command")
			continue
		}
		hashes[d.Name] = h
		time.Sleep(25 * time.Millisecond) // stay well under Discord's rate limit
	}
	if changed > 0 {
		b.log.Info().Str("guild", guildID).Int("changed", changed).Msg("registered commands")
	}
}

// commandDefinition extracts the ApplicationCommand definition from a registered command,
// walking through middleware wrappers via cmd.Root.
func commandDefinition(c cmd.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.Root(c).(command.SlashProvider)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def != nil && def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

// appID returns the bot's application ID, fetching from Discord if not cached in State.
func (b *Bot) appID() (string, error) {
	if b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}

// --- Command hash cache ---

// hashStore keeps one JSON file of command hashes per guild.
type hashStore struct {
	dir string
}

func (h hashStore) path(guildID string) string {
	return filepath.Join(h.dir, guildID+".json")
}

func (h hashStore) load(guildID string) map[string]string {
	out := make(map[string]string)
	if data, err := os.ReadFile(h.path(guildID)); err == nil {
		_ = json.Unmarshal(data, &out)
	}
	return out
}

func (h hashStore) save(guildID string, hashes map[string]string) error {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return fmt.Errorf("create hash dir: %w", err)
	}
	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(h.path(guildID), data, 0o644)
}

// --- Command hashing ---

// hashCommand returns a deterministic SHA-1 of a command's stable fields.
// Used to skip re-registration when nothing has changed.
func hashCommand(c *discordgo.ApplicationCommand) string {
	stable := map[string]any{
		"name":        c.Name,
		"description": c.Description,
		"type":        c.Type,
	}
	if len(c.Options) > 0 {
		stable["options"] = normalizeOptions(c.Options)
	}
	data, _ := json.Marshal(stable)
	sum := sha1.Sum(data)
	return fmt.Sprintf("%x", sum)
}

func normalizeOptions(opts []*discordgo.ApplicationCommandOption) []map[string]any {
	out := make([]map[string]any, len(opts))
	for i, o := range opts {
		entry := map[string]any{
			"name":        o.Name,
			"description": o.Description,
			"type":        o.Type,
			"required":    o.Required,
		}
		if o.MinValue != nil {
			entry["min"] = *o.MinValue
		}
		if o.MaxValue != 0 {
			entry["max"] = o.MaxValue
		}
		if len(o.Choices) > 0 {
			choices := make([]map[string]any, len(o.Choices))
			for j, ch := range o.Choices {
				choices[j] = map[string]any{"name": ch.Name, "value": ch.Value}
			}
			entry["choices"] = choices
		}
		if len(o.Options) > 0 {
			entry["options"] = normalizeOptions(o.Options)
		}
		out[i] = entry
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["name"].(string) < out[j]["name"].(string)
	})
	return out
}
