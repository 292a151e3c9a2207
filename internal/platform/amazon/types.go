package amazon

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

type searchItemsRequest struct {
	Keywords    string   `json:"Keywords"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace,omitempty"`
	SearchIndex string   `json:"SearchIndex"`
	ItemCount   int      `json:"ItemCount"`
	ItemPage    int      `json:"ItemPage"`
	Resources   []string `json:"Resources"`
}

type searchItemsResponse struct {
	SearchResult *struct {
		TotalResultCount int    `json:"TotalResultCount"`
		Items            []item `json:"Items"`
	} `json:"SearchResult"`
	Errors []apiError `json:"Errors"`
}

type apiError struct {
	Code    string `json:"Code"`
	Message string `json:"Message"`
}

func (r searchItemsResponse) noResults() bool {
	return len(r.Errors) > 0 && r.Errors[0].Code == "NoResults"
}

func (r searchItemsResponse) errorMessage() string {
	if len(r.Errors) == 0 {
		return "unknown error"
	}
	return fmt.Sprintf("%s: %s", r.Errors[0].Code, r.Errors[0].Message)
}

type displayValue struct {
	DisplayValue string `json:"DisplayValue"`
}

type item struct {
	ASIN          string `json:"ASIN"`
	DetailPageURL string `json:"DetailPageURL"`
	ItemInfo      struct {
		Title           displayValue `json:"Title"`
		Classifications struct {
			ProductGroup displayValue `json:"ProductGroup"`
		} `json:"Classifications"`
	} `json:"ItemInfo"`
	Images struct {
		Primary struct {
			Medium struct {
				URL string `json:"URL"`
			} `json:"Medium"`
		} `json:"Primary"`
	} `json:"Images"`
	Offers struct {
		Listings []offer `json:"Listings"`
	} `json:"Offers"`
}

type offer struct {
	Price struct {
		Amount   float64 `json:"Amount"`
		Currency string  `json:"Currency"`
	} `json:"Price"`
	Condition struct {
		Value string `json:"Value"`
	} `json:"Condition"`
	DeliveryInfo struct {
		IsFreeShippingEligible bool `json:"IsFreeShippingEligible"`
	} `json:"DeliveryInfo"`
	MerchantInfo struct {
		ID             string  `json:"Id"`
		Name           string  `json:"Name"`
		FeedbackRating float64 `json:"FeedbackRating"`
	} `json:"MerchantInfo"`
	Availability struct {
		MaxOrderQuantity int `json:"MaxOrderQuantity"`
	} `json:"Availability"`
}

// toListing maps the first offer of an item. Items without an offer price
// are dropped.
func (it item) toListing() (domain.Listing, bool) {
	if it.ASIN == "" || len(it.Offers.Listings) == 0 {
		return domain.Listing{}, false
	}
	o := it.Offers.Listings[0]
	if o.Price.Amount <= 0 {
		return domain.Listing{}, false
	}
	return domain.Listing{
		Platform:     domain.PlatformAmazon,
		ProductID:    it.ASIN,
		Title:        it.ItemInfo.Title.DisplayValue,
		Price:        decimal.NewFromFloat(o.Price.Amount),
		Currency:     cmp.Or(o.Price.Currency, "GBP"),
		SellerID:     cmp.Or(o.MerchantInfo.ID, o.MerchantInfo.Name),
		SellerRating: min(max(o.MerchantInfo.FeedbackRating, 0), 5),
		Stock:        o.Availability.MaxOrderQuantity,
		Condition:    strings.ToLower(o.Condition.Value),
		Category:     it.ItemInfo.Classifications.ProductGroup.DisplayValue,
		URL:          it.DetailPageURL,
		ImageURL:     it.Images.Primary.Medium.URL,
	}, true
}
