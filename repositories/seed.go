package repositories

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ItsSkellyHer3/ChatIfy/domain"
)

// SeedShowcase populates an empty store with the default channels, a few
// showcase users and two welcome messages. It is a no-op when channels
// already exist, so restarts never lose data.
func SeedShowcase(channels IChannelRepository, users IUserRepository, messages IMessageRepository, log *slog.Logger) error {
	existing, err := channels.ListChannels()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seedChannels := []domain.Channel{
		{ID: "general", Name: "General"},
		{ID: "chill", Name: "Chill Area"},
		{ID: "dev", Name: "Development"},
	}
	for _, ch := range seedChannels {
		if err := channels.StoreChannel(ch.ID, ch.Name); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	seedUsers := []domain.User{
		{ID: "alex-1", Name: "Alex Johnson", Avatar: "https://api.dicebear.com/7.x/micah/svg?seed=Alex", CreatedAt: now, LastSeen: now},
		{ID: "jordan-2", Name: "Jordan Smith", Avatar: "https://api.dicebear.com/7.x/micah/svg?seed=Jordan", CreatedAt: now, LastSeen: now},
		{ID: "taylor-3", Name: "Taylor Reed", Avatar: "https://api.dicebear.com/7.x/micah/svg?seed=Taylor", CreatedAt: now, LastSeen: now},
	}
	for _, user := range seedUsers {
		if err := users.CreateUser(user); err != nil {
			return err
		}
	}

	welcome := []domain.Message{
		{
			ID:        uuid.New(),
			ChannelID: "general",
			AuthorID:  seedUsers[0].ID,
			Name:      seedUsers[0].Name,
			Avatar:    seedUsers[0].Avatar,
			Text:      "Hey everyone! Welcome to the new Chatify interface. I'm Alex from the UX team.",
			At:        now,
		},
		{
			ID:        uuid.New(),
			ChannelID: "general",
			AuthorID:  seedUsers[1].ID,
			Name:      seedUsers[1].Name,
			Avatar:    seedUsers[1].Avatar,
			Text:      "Wow, the new 4-column layout is so much cleaner. Great job on the micro-interactions too!",
			At:        now.Add(time.Second),
		},
	}
	for _, message := range welcome {
		if err := messages.StoreMessage(message); err != nil {
			return err
		}
	}

	log.Info("Seeded showcase data",
		"channels", len(seedChannels),
		"users", len(seedUsers),
		"messages", len(welcome))
	return nil
}
