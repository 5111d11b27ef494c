package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"bell-registry/auth"
	"bell-registry/domain"
	"bell-registry/repositories"
)

// Seeds a local store with two demo accounts, a conversation and a short
// exchange, so the chat CLI and the inspector have something to show on a
// fresh checkout.
func main() {
	dbPath := "./badger_data"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	fmt.Println("🚀 Generating demo data...")

	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		panic(fmt.Sprintf("Cannot open store at %s: %v", dbPath, err))
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	conversations := repositories.NewConversationRepository(db)
	messages := repositories.NewMessageRepository(db, slog.Default(), nil)

	clientID := seedUser(users, "carol@example.com", "DemoClient!2026", domain.RoleClient)
	proID := seedUser(users, "paul@example.com", "DemoPro!2026", domain.RoleProfessional)

	now := time.Now().UTC()
	conversation := domain.Conversation{
		ID:             "demo-conversation",
		ClientID:       clientID,
		ProfessionalID: proID,
		Status:         domain.ConversationActive,
		CreatedAt:      now.Add(-time.Hour),
		LastMessageAt:  now,
	}
	if err := conversations.Create(conversation); err != nil {
		panic(fmt.Sprintf("Seeding conversation failed: %v", err))
	}
	fmt.Printf("💬 Conversation: %s\n", conversation.ID)

	exchange := []struct {
		sender  string
		content string
		age     time.Duration
	}{
		{clientID, "Hi! I'm looking for help with a kitchen renovation.", 50 * time.Minute},
		{proID, "Happy to help. What is the rough size of the kitchen?", 40 * time.Minute},
		{clientID, "About 12 square meters, appliances stay where they are.", 30 * time.Minute},
	}
	for i, m := range exchange {
		err := messages.StoreMessage(domain.Message{
			ID:             fmt.Sprintf("demo-message-%d", i+1),
			ConversationID: conversation.ID,
			SenderID:       m.sender,
			Content:        m.content,
			CreatedAt:      now.Add(-m.age),
		})
		if err != nil {
			panic(fmt.Sprintf("Seeding message failed: %v", err))
		}
	}
	fmt.Printf("✉️  %d messages written\n", len(exchange))

	fmt.Println("\n✅ Done! Log in as carol@example.com / DemoClient!2026 or paul@example.com / DemoPro!2026")
}

func seedUser(users repositories.IUserRepository, email, password string, role domain.Role) string {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(fmt.Sprintf("Hashing failed: %v", err))
	}
	id, err := users.CreateUser(email, hash, role)
	if err != nil {
		panic(fmt.Sprintf("Seeding user %s failed: %v", email, err))
	}
	fmt.Printf("👤 %s (%s): %s\n", email, role, id)
	return id
}
