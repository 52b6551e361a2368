package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCities = []string{"London", "Manchester", "Bristol", "Leeds", "Brighton"}

var seedQuestions = []string{
	"A perfect Sunday looks like",
	"The way to my heart is",
	"Two truths and a lie",
}

// SeedTestData resets the database and populates it with demo profiles and
// swipe history.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords, photos and
//     prompts, plus one premium account and one admin.
//  3. Generates ~200 swipes with ~70% likes; every 3rd pair is forced mutual
//     so matches and conversations exist out of the box.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(database *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{
		"messages", "conversations", "matches", "swipes",
		"boosts", "reports", "blocks", "prompts", "user_photos", "users",
	} {
		if err := database.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Seed Users (10 male, 10 female) ---
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		gender, preference := "male", "female"
		if i > 10 {
			gender, preference = "female", "male"
		}

		dob := time.Date(2005-r.Intn(20), time.Month(1+r.Intn(12)), 1+r.Intn(28), 0, 0, 0, 0, time.UTC)
		user := User{
			Email:            fmt.Sprintf("user%d@example.com", i),
			PasswordHash:     string(hash),
			Name:             fmt.Sprintf("User %d", i),
			Bio:              "Here for good chat and better coffee.",
			DateOfBirth:      &dob,
			Gender:           gender,
			GenderPreference: preference,
			DatingIntent:     "long-term",
			City:             seedCities[r.Intn(len(seedCities))],
			ProfileScore:     40 + r.Intn(60),
			ActivityScore:    r.Intn(50),
			Active:           true,
			LastLoginAt:      time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if i == 1 {
			user.SubscriptionTier = TierPremium
		}
		if i == 20 {
			user.Role = RoleAdmin
		}

		if err := database.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		for p := 0; p < 2+r.Intn(3); p++ {
			photo := UserPhoto{
				UserID:   user.ID,
				URL:      fmt.Sprintf("https://cdn.example.com/photos/%d-%d.jpg", i, p),
				Position: p,
			}
			if err := database.Create(&photo).Error; err != nil {
				return fmt.Errorf("failed to seed photo: %w", err)
			}
		}
		for p := 0; p < 1+r.Intn(3); p++ {
			prompt := Prompt{
				UserID:   user.ID,
				Question: seedQuestions[p],
				Answer:   "Ask me and find out.",
			}
			if err := database.Create(&prompt).Error; err != nil {
				return fmt.Errorf("failed to seed prompt: %w", err)
			}
		}

		users = append(users, user)
	}
	log.Println("Seeded 20 users.")

	// --- Seed Swipes (~200) ---
	seen := map[string]bool{}
	counter := 0
	for ai := range users {
		for j := 0; j < 12; j++ {
			ti := r.Intn(len(users))
			actor, target := users[ai], users[ti]
			if actor.ID == target.ID || actor.Gender == target.Gender {
				continue
			}
			if seen[actor.ID+target.ID] {
				continue
			}

			kind := SwipeKindDislike
			if r.Intn(100) < 70 {
				kind = SwipeKindLike
			}

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 {
				kind = SwipeKindLike
				if !seen[target.ID+actor.ID] {
					if err := seedSwipe(database, target.ID, actor.ID, SwipeKindLike); err != nil {
						return err
					}
					seen[target.ID+actor.ID] = true
				}
			}

			if err := seedSwipe(database, actor.ID, target.ID, kind); err != nil {
				return err
			}
			seen[actor.ID+target.ID] = true
			counter++
		}
	}

	// --- Materialize matches for mutual likes ---
	for _, a := range users {
		for _, b := range users {
			if a.ID >= b.ID {
				continue
			}
			var mutual int64
			database.Model(&Swipe{}).
				Where("((actor_id = ? AND target_id = ?) OR (actor_id = ? AND target_id = ?)) AND kind = ?",
					a.ID, b.ID, b.ID, a.ID, SwipeKindLike).
				Count(&mutual)
			if mutual == 2 {
				one, two := CanonicalPair(a.ID, b.ID)
				if err := database.Create(&Match{UserOneID: one, UserTwoID: two}).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
			}
		}
	}

	log.Println("Seeding completed.")
	return nil
}

func seedSwipe(database *gorm.DB, actorID, targetID, kind string) error {
	swipe := Swipe{ActorID: actorID, TargetID: targetID, Kind: kind}
	if err := database.Create(&swipe).Error; err != nil {
		return fmt.Errorf("failed to seed swipe: %w", err)
	}
	return nil
}
