package ebay

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

type searchResponse struct {
	Total         int           `json:"total"`
	ItemSummaries []itemSummary `json:"itemSummaries"`
}

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type itemSummary struct {
	ItemID          string `json:"itemId"`
	Title           string `json:"title"`
	Price           amount `json:"price"`
	ItemWebURL      string `json:"itemWebUrl"`
	Condition       string `json:"condition"`
	ShippingOptions []struct {
		ShippingCost amount `json:"shippingCost"`
	} `json:"shippingOptions"`
	Seller struct {
		Username           string `json:"username"`
		FeedbackPercentage string `json:"feedbackPercentage"`
	} `json:"seller"`
	EstimatedAvailabilities []struct {
		AvailabilityThreshold      int `json:"availabilityThreshold"`
		EstimatedAvailableQuantity int `json:"estimatedAvailableQuantity"`
	} `json:"estimatedAvailabilities"`
	Categories []struct {
		CategoryName string `json:"categoryName"`
	} `json:"categories"`
	Image struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
}

func (it itemSummary) toListing() (domain.Listing, error) {
	if it.ItemID == "" {
		return domain.Listing{}, errors.New("missing item id")
	}
	price, err := decimal.NewFromString(it.Price.Value)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("price %q: %w", it.Price.Value, err)
	}

	l := domain.Listing{
		Platform:     domain.PlatformEbay,
		ProductID:    it.ItemID,
		Title:        it.Title,
		Price:        price,
		Currency:     cmp.Or(it.Price.Currency, "GBP"),
		SellerID:     it.Seller.Username,
		SellerRating: sellerRating(it.Seller.FeedbackPercentage),
		Condition:    it.Condition,
		URL:          it.ItemWebURL,
		ImageURL:     it.Image.ImageURL,
	}
	if len(it.ShippingOptions) > 0 {
		if ship, err := decimal.NewFromString(it.ShippingOptions[0].ShippingCost.Value); err == nil {
			l.Shipping = ship
		}
	}
	if len(it.EstimatedAvailabilities) > 0 {
		a := it.EstimatedAvailabilities[0]
		l.Stock = max(a.AvailabilityThreshold, a.EstimatedAvailableQuantity)
	}
	if len(it.Categories) > 0 {
		l.Category = it.Categories[0].CategoryName
	}
	return l, nil
}

// sellerRating converts a feedback percentage to the 0-5 star scale.
func sellerRating(feedbackPercentage string) float64 {
	pct, err := strconv.ParseFloat(strings.TrimSpace(feedbackPercentage), 64)
	if err != nil || pct <= 0 {
		return 0
	}
	return min(pct, 100) / 100 * 5
}

type errorResponse struct {
	Errors []struct {
		ErrorID  int    `json:"errorId"`
		Message  string `json:"message"`
		LongText string `json:"longMessage"`
	} `json:"errors"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e errorResponse) message() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s (%d)", e.Errors[0].Message, e.Errors[0].ErrorID)
	}
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}
	return e.Error
}
