package bootstrap

import (
	"fmt"

	"anoa.com/karmafeed/internal/entity"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DemoPassword = "password123"

// SeedUsers makes sure a user exists for each username and returns them in
// the same order. Existing users are left untouched.
func SeedUsers(db *gorm.DB, usernames []string) ([]entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]entity.User, 0, len(usernames))
	for _, username := range usernames {
		user := entity.User{
			Username:     username,
			Email:        fmt.Sprintf("%s@example.com", username),
			PasswordHash: string(hash),
		}
		if err := db.Where(entity.User{Username: username}).FirstOrCreate(&user).Error; err != nil {
			return nil, fmt.Errorf("seed user %s: %w", username, err)
		}
		users = append(users, user)
	}

	log.WithField("count", len(users)).Info("demo users seeded")
	return users, nil
}
