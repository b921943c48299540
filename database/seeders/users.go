package seeders

import (
	"log"

	"gorm.io/gorm"

	"mora-delivery/constants"
	"mora-delivery/models/user"
)

// SeedUsers inserts the demo identities the login screen offers. Existing
// usernames are left untouched.
func SeedUsers(db *gorm.DB) {
	log.Printf("🔍 Checking demo user data integrity...")

	users := []user.User{
		{Username: "guest", LegalName: "Tamu / Guest", Role: constants.RoleGuest, Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Guest"},
		{Username: "andi", LegalName: "Andi Kurir", Phone: "6281234567890", Role: constants.RoleCourier, Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Andi"},
		{Username: "budi", LegalName: "Budi PIC", Phone: "6281987654321", Role: constants.RolePIC, Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Budi"},
		{Username: "citra", LegalName: "Citra Admin", Phone: "6282112345678", Role: constants.RoleAdmin, Avatar: "https://api.dicebear.com/7.x/avataaars/svg?seed=Citra"},
	}

	for _, u := range users {
		var existing user.User
		err := db.Where("username = ?", u.Username).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&u).Error; err != nil {
				log.Printf("❌ Failed to seed user %s: %v", u.Username, err)
				continue
			}
			log.Printf("✅ Seeded user %s (%s)", u.Username, u.Role)
		}
	}
}
