package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultMaxGuests = 12
	DefaultCurrency  = "RM"
)

var DefaultDepositPrice = decimal.NewFromInt(50)

type Trip struct {
	ID           primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	TripID       string             `json:"trip_id" bson:"trip_id"`
	Title        string             `json:"title" bson:"title"`
	Images       []string           `json:"images" bson:"images"`
	Price        decimal.Decimal    `json:"price" bson:"price"`
	DepositPrice *decimal.Decimal   `json:"deposit_price" bson:"deposit_price"`
	MaxGuests    int                `json:"max_guests" bson:"max_guests"`
	Currency     string             `json:"currency" bson:"currency"`
	HostID       string             `json:"host_id,omitempty" bson:"host_id,omitempty"`
	Status       string             `json:"status" bson:"status"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

func (t *Trip) EffectiveMaxGuests() int {
	if t.MaxGuests <= 0 {
		return DefaultMaxGuests
	}
	return t.MaxGuests
}

func (t *Trip) EffectiveDepositPrice() decimal.Decimal {
	if t.DepositPrice == nil {
		return DefaultDepositPrice
	}
	return *t.DepositPrice
}

func (t *Trip) EffectiveCurrency() string {
	if t.Currency == "" {
		return DefaultCurrency
	}
	return t.Currency
}

func (t *Trip) CoverImage() string {
	if len(t.Images) == 0 {
		return ""
	}
	return t.Images[0]
}
