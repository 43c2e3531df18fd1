package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
	RoleAdmin    Role = "admin" // never assignable through the public API
)

// AssignableRoles are the roles a user may pick at registration or profile update.
var AssignableRoles = []string{string(RoleCustomer), string(RoleWorker)}

func IsValidRole(role string) bool {
	for _, r := range AssignableRoles {
		if role == r {
			return true
		}
	}
	return false
}

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	Password       string    `gorm:"not null" json:"-"`
	PhoneNumber    string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"phoneNumber"`
	ProfilePicture string    `gorm:"type:text" json:"profilePicture"`

	// Roles is a non-empty subset of {customer, worker}; a user may hold both.
	Roles datatypes.JSON `gorm:"not null" json:"roles"`
	// Categories only carries meaning while the worker role is held.
	Categories datatypes.JSON `json:"categories"`

	Rating float64 `gorm:"default:0" json:"rating"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) RoleList() []string {
	return decodeStringList(u.Roles)
}

func (u *User) CategoryList() []string {
	return decodeStringList(u.Categories)
}

func (u *User) SetRoles(roles []string) {
	u.Roles = encodeStringList(roles)
}

func (u *User) SetCategories(categories []string) {
	u.Categories = encodeStringList(categories)
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.RoleList() {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) HasCategory(category string) bool {
	for _, c := range u.CategoryList() {
		if c == category {
			return true
		}
	}
	return false
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func encodeStringList(list []string) datatypes.JSON {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return datatypes.JSON(b)
}
