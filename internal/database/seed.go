package database

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/utils"
)

// EnsureAdmin creates the bootstrap admin account, or promotes an existing
// account with that email. It does nothing when email or password is empty.
func EnsureAdmin(conn *gorm.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var user models.User
	err := conn.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if user.IsAdmin() {
			return nil
		}
		log.Info().Str("email", email).Msg("promoting existing user to admin")
		return conn.Model(&user).Update("role", models.RoleAdmin).Error
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return err
	}

	log.Info().Str("email", email).Msg("bootstrap admin created")
	return nil
}
