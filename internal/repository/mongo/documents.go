package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/subtrack/subtrack/internal/domain/subscription"
	"github.com/subtrack/subtrack/internal/domain/user"
	"github.com/subtrack/subtrack/internal/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type subscriptionDocument struct {
	ID            string               `bson:"_id"`
	UserID        string               `bson:"user_id"`
	Name          string               `bson:"name"`
	Price         primitive.Decimal128 `bson:"price"`
	Currency      string               `bson:"currency"`
	Frequency     string               `bson:"frequency"`
	Category      string               `bson:"category"`
	PaymentMethod string               `bson:"payment_method"`
	Status        string               `bson:"status"`
	StartDate     time.Time            `bson:"start_date"`
	RenewalDate   *time.Time           `bson:"renewal_date,omitempty"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func subscriptionToDocument(s *subscription.Subscription) (*subscriptionDocument, error) {
	price, err := primitive.ParseDecimal128(s.Price.String())
	if err != nil {
		return nil, err
	}

	doc := &subscriptionDocument{
		ID:            s.ID,
		UserID:        s.UserID,
		Name:          s.Name,
		Price:         price,
		Currency:      string(s.Currency),
		Frequency:     string(s.Frequency),
		Category:      string(s.Category),
		PaymentMethod: s.PaymentMethod,
		Status:        string(s.Status),
		StartDate:     s.StartDate.UTC(),
		CreatedAt:     s.CreatedAt.UTC(),
		UpdatedAt:     s.UpdatedAt.UTC(),
	}
	if !s.RenewalDate.IsZero() {
		renewal := s.RenewalDate.UTC()
		doc.RenewalDate = &renewal
	}
	return doc, nil
}

func subscriptionFromDocument(d *subscriptionDocument) *subscription.Subscription {
	if d == nil {
		return nil
	}

	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		price = decimal.Zero
	}

	s := &subscription.Subscription{
		ID:            d.ID,
		UserID:        d.UserID,
		Name:          d.Name,
		Price:         price,
		Currency:      types.Currency(d.Currency),
		Frequency:     types.SubscriptionFrequency(d.Frequency),
		Category:      types.SubscriptionCategory(d.Category),
		PaymentMethod: d.PaymentMethod,
		Status:        types.SubscriptionStatus(d.Status),
		StartDate:     d.StartDate,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.RenewalDate != nil {
		s.RenewalDate = *d.RenewalDate
	}
	return s
}

type userDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func userToDocument(u *user.User) *userDocument {
	return &userDocument{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func userFromDocument(d *userDocument) *user.User {
	if d == nil {
		return nil
	}
	return &user.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
