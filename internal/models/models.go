package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/classifieds/internal/domain"
)

func init() {
	// prices go over the wire as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

type User struct {
	ID        uint        `gorm:"primaryKey;autoIncrement"         json:"id"`
	Name      string      `gorm:"not null"                         json:"name"`
	Email     string      `gorm:"uniqueIndex;not null"             json:"email"`
	Password  string      `gorm:"not null"                         json:"-"`
	Role      domain.Role `gorm:"type:varchar(16);not null;default:user" json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"-"`
}

// Owner is the redacted view of a user embedded in ad responses.
type Owner struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (Owner) TableName() string {
	return "users"
}

type Category struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null"     json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Ad struct {
	ID                 uint                `gorm:"primaryKey;autoIncrement"                        json:"id"`
	Title              string              `gorm:"not null"                                        json:"title"`
	Description        string              `gorm:"type:text;not null"                              json:"description"`
	Price              decimal.Decimal     `gorm:"type:numeric(12,2);not null"                     json:"price"`
	ImageURL           *string             `json:"imageUrl"`
	CategoryID         uint                `gorm:"index;not null"                                  json:"categoryId"`
	Category           *Category           `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	UserID             uint                `gorm:"index;not null"                                  json:"userId"`
	User               *Owner              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"   json:"user,omitempty"`
	Status             domain.Status       `gorm:"type:varchar(32);index;not null"                 json:"status"`
	VerificationStatus domain.Verification `gorm:"type:varchar(16);not null"                       json:"verificationStatus"`
	VerificationReason *string             `json:"verificationReason"`
	SoldAt             *time.Time          `json:"soldAt"`
	SoldReason         *string             `json:"soldReason"`
	PublishedAt        *time.Time          `json:"publishedAt"`
	ExpiresAt          *time.Time          `gorm:"index"                                           json:"expiresAt"`
	CreatedAt          time.Time           `gorm:"index"                                           json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// All lists the models in migration order.
func All() []any {
	return []any{&User{}, &Category{}, &Ad{}}
}
