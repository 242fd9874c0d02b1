package main

import (
	"log"
	"log/slog"

	"collab-service/internal/config"
	"collab-service/internal/database"
	"collab-service/internal/models"
	"collab-service/internal/repositories/postgres"
	"collab-service/internal/services"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database seeding...")

	db, err := database.NewPostgresConnection(cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	userRepo := postgres.NewUserRepository(db)
	channelRepo := postgres.NewChannelRepository(db)
	channelService := services.NewChannelService(channelRepo)

	slog.Info("Creating initial users...")

	seedUsers := []struct {
		username string
		email    string
		password string
	}{
		{"admin", "admin@collab.local", "123456"},
		{"alice", "alice@collab.local", "123456"},
		{"bob", "bob@collab.local", "123456"},
		{"charlie", "charlie@collab.local", "123456"},
	}

	for _, data := range seedUsers {
		hashed, _ := bcrypt.GenerateFromPassword([]byte(data.password), bcrypt.DefaultCost)
		user := &models.User{
			Username: data.username,
			Email:    data.email,
			Password: string(hashed),
		}
		if err := userRepo.Create(user); err != nil {
			slog.Warn("User might already exist", "username", data.username, "error", err)
		} else {
			slog.Info("Created user", "username", data.username, "id", user.ID)
		}
	}

	slog.Info("Creating initial channels...")

	admin, err := userRepo.FindByEmail("admin@collab.local")
	if err != nil {
		log.Fatal("Could not find admin user for channel creation:", err)
	}

	channelNames := []string{"general", "random", "development", "design"}
	var general *models.ChannelResponse
	for _, name := range channelNames {
		channel, err := channelService.CreateChannel(admin.ID, &models.CreateChannelRequest{Name: name})
		if err != nil {
			slog.Warn("Channel might already exist", "name", name, "error", err)
			continue
		}
		slog.Info("Created channel", "name", name, "id", channel.ID)
		if name == "general" {
			general = channel
		}
	}

	if general != nil {
		slog.Info("Adding members to general...")
		for _, email := range []string{"alice@collab.local", "bob@collab.local", "charlie@collab.local"} {
			user, err := userRepo.FindByEmail(email)
			if err != nil {
				slog.Warn("Seed user missing", "email", email, "error", err)
				continue
			}
			if _, err := channelService.Join(general.ID, user.ID); err != nil {
				slog.Warn("Failed to add member", "email", email, "error", err)
			}
		}

		slog.Info("Creating sample messages...")
		if err := seedSampleMessages(db, userRepo, general.ID); err != nil {
			slog.Warn("Failed to seed sample messages", "error", err)
		}
	}

	slog.Info("Database seeding completed successfully!")
}

func seedSampleMessages(db *gorm.DB, userRepo *postgres.UserRepository, channelID uint) error {
	admin, err := userRepo.FindByEmail("admin@collab.local")
	if err != nil {
		return err
	}
	alice, err := userRepo.FindByEmail("alice@collab.local")
	if err != nil {
		return err
	}
	bob, err := userRepo.FindByEmail("bob@collab.local")
	if err != nil {
		return err
	}

	messages := []models.Message{
		{
			SenderID:    admin.ID,
			ChannelID:   channelID,
			Content:     "Welcome to the general channel!",
			MessageType: models.MessageTypeText,
		},
		{
			SenderID:    alice.ID,
			ChannelID:   channelID,
			Content:     "Hi everyone, excited to be here.",
			MessageType: models.MessageTypeText,
		},
		{
			SenderID:    bob.ID,
			ChannelID:   channelID,
			Content:     "Hello @alice, looking forward to working together.",
			MessageType: models.MessageTypeText,
		},
	}

	for _, msg := range messages {
		if err := db.Create(&msg).Error; err != nil {
			slog.Warn("Failed to create message", "error", err)
		}
	}
	return nil
}
