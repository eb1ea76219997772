package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedPassword is the password every seeded account gets.
const SeedPassword = "password"

var seedCities = []struct{ City, Country string }{
	{"Moscow", "Russia"},
	{"Kazan", "Russia"},
	{"London", "United Kingdom"},
	{"Berlin", "Germany"},
	{"Lisbon", "Portugal"},
}

// SeedTestData resets the database and populates it with demo users and likes.
//
// Behavior:
//  1. Clears existing data in `likes` and `users` tables.
//  2. Creates 20 users (10 male, 10 female) with ages 18..60 and one shared bcrypt hash.
//  3. Generates likes between opposite genders; every 3rd pair is made mutual.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset differs per dialect).
func SeedTestData(database *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := clearTables(database); err != nil {
		return err
	}
	log.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender := GenderMale
		if i > 10 {
			gender = GenderFemale
		}
		place := seedCities[r.Intn(len(seedCities))]
		age := 18 + r.Intn(43)

		users = append(users, User{
			Username:     fmt.Sprintf("user%d", i),
			PasswordHash: string(hash),
			Gender:       gender,
			DateOfBirth:  now.AddDate(-age, 0, -r.Intn(365)).Truncate(24 * time.Hour),
			KnownAs:      fmt.Sprintf("User %d", i),
			City:         place.City,
			Country:      place.Country,
			Introduction: "Seeded demo account.",
			LookingFor:   "Someone to talk to.",
			Interests:    "music, travel",
			CreatedAt:    now.Add(-time.Duration(r.Intn(2000)) * time.Hour),
			LastActive:   now.Add(-time.Duration(r.Intn(500)) * time.Hour),
		})
	}
	if err := database.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Info("seeded users", "count", len(users))

	counter := 0
	for _, liker := range users {
		for j := 0; j < 6; j++ {
			likee := users[r.Intn(len(users))]
			if likee.ID == liker.ID || likee.Gender == liker.Gender {
				continue
			}

			edges := []Like{{LikerID: liker.ID, LikeeID: likee.ID}}
			if counter%3 == 0 {
				edges = append(edges, Like{LikerID: likee.ID, LikeeID: liker.ID})
			}
			if err := database.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges).Error; err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
			counter++
		}
	}
	log.Info("seeded likes", "pairs", counter)

	return nil
}

// SeedMinimalTestData inserts a small deterministic dataset:
// user1 (male), user2 (female), user3 (female); user1 <-> user2 mutual, user3 -> user1.
func SeedMinimalTestData(database *gorm.DB) error {
	if err := clearTables(database); err != nil {
		return err
	}

	dob := time.Date(1995, time.June, 1, 0, 0, 0, 0, time.UTC)
	users := []User{
		{ID: 1, Username: "user1", PasswordHash: "x", Gender: GenderMale, DateOfBirth: dob},
		{ID: 2, Username: "user2", PasswordHash: "x", Gender: GenderFemale, DateOfBirth: dob},
		{ID: 3, Username: "user3", PasswordHash: "x", Gender: GenderFemale, DateOfBirth: dob},
	}
	if err := database.Create(&users).Error; err != nil {
		return err
	}

	likes := []Like{
		{LikerID: 1, LikeeID: 2},
		{LikerID: 2, LikeeID: 1},
		{LikerID: 3, LikeeID: 1},
	}
	return database.Create(&likes).Error
}

func clearTables(database *gorm.DB) error {
	if err := database.Exec("DELETE FROM likes").Error; err != nil {
		return fmt.Errorf("failed to clear likes: %w", err)
	}
	if err := database.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("failed to clear users: %w", err)
	}

	switch database.Dialector.Name() {
	case "mysql":
		database.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
	case "sqlite":
		database.Exec("DELETE FROM sqlite_sequence WHERE name = 'users'")
	}
	return nil
}
