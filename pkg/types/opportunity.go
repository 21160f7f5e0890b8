package types

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// OpportunityDto is a candidate arbitrage opportunity as scored by the backend.
type OpportunityDto struct {
	ID                 string     `json:"id"`
	TokenSymbol        string     `json:"tokenSymbol"`
	TokenName          *string    `json:"tokenName,omitempty"`
	ChainFrom          string     `json:"chainFrom"`
	ChainTo            string     `json:"chainTo"`
	PriceDiffUSD       float64    `json:"priceDiffUsd"`
	PriceDiffPercent   *float64   `json:"priceDiffPercent,omitempty"`
	GasCostUSD         float64    `json:"gasCostUsd"`
	NetProfitUSD       float64    `json:"netProfitUsd"`
	EstimatedProfitUSD float64    `json:"estimatedProfitUsd"`
	Score              float64    `json:"score"`
	ROI                *float64   `json:"roi,omitempty"`
	Flagged            *bool      `json:"flagged,omitempty"`
	FlagReasons        []string   `json:"flagReasons,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON accepts the Mongo-style "_id" as an alias of "id".
func (o *OpportunityDto) UnmarshalJSON(data []byte) error {
	type Alias OpportunityDto
	aux := &struct {
		*Alias
		MongoID string `json:"_id"`
	}{
		Alias: (*Alias)(o),
	}

	err := json.Unmarshal(data, aux)
	if err != nil {
		return err
	}

	if o.ID == "" {
		o.ID = aux.MongoID
	}

	return nil
}

// Opportunity is the client view model of an OpportunityDto. Optional DTO
// fields are flattened into zero values with explicit presence flags.
type Opportunity struct {
	ID                  string    `json:"id"`
	TokenSymbol         string    `json:"tokenSymbol"`
	TokenName           string    `json:"tokenName"`
	ChainFrom           string    `json:"chainFrom"`
	ChainTo             string    `json:"chainTo"`
	Route               string    `json:"route"`
	PriceDiffUSD        float64   `json:"priceDiffUsd"`
	PriceDiffPercent    float64   `json:"priceDiffPercent"`
	HasPriceDiffPercent bool      `json:"hasPriceDiffPercent"`
	GasCostUSD          float64   `json:"gasCostUsd"`
	NetProfitUSD        float64   `json:"netProfitUsd"`
	EstimatedProfitUSD  float64   `json:"estimatedProfitUsd"`
	Score               float64   `json:"score"`
	ROI                 float64   `json:"roi"`
	HasROI              bool      `json:"hasRoi"`
	Flagged             bool      `json:"flagged"`
	FlagReasons         []string  `json:"flagReasons"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// NewOpportunity normalizes a server DTO into the view model.
func NewOpportunity(dto *OpportunityDto) Opportunity {
	opp := Opportunity{
		ID:                 dto.ID,
		TokenSymbol:        dto.TokenSymbol,
		TokenName:          dto.TokenSymbol,
		ChainFrom:          dto.ChainFrom,
		ChainTo:            dto.ChainTo,
		Route:              fmt.Sprintf("%s → %s", dto.ChainFrom, dto.ChainTo),
		PriceDiffUSD:       dto.PriceDiffUSD,
		GasCostUSD:         dto.GasCostUSD,
		NetProfitUSD:       dto.NetProfitUSD,
		EstimatedProfitUSD: dto.EstimatedProfitUSD,
		Score:              dto.Score,
		FlagReasons:        []string{},
	}

	if dto.TokenName != nil && *dto.TokenName != "" {
		opp.TokenName = *dto.TokenName
	}
	if dto.PriceDiffPercent != nil {
		opp.PriceDiffPercent = *dto.PriceDiffPercent
		opp.HasPriceDiffPercent = true
	}
	if dto.ROI != nil {
		opp.ROI = *dto.ROI
		opp.HasROI = true
	}
	if dto.Flagged != nil {
		opp.Flagged = *dto.Flagged
	}
	if len(dto.FlagReasons) > 0 {
		opp.FlagReasons = append(opp.FlagReasons, dto.FlagReasons...)
	}
	if dto.UpdatedAt != nil {
		opp.UpdatedAt = *dto.UpdatedAt
	}

	return opp
}

// NewOpportunities normalizes a slice of DTOs, preserving order.
func NewOpportunities(dtos []OpportunityDto) []Opportunity {
	opps := make([]Opportunity, 0, len(dtos))
	for i := range dtos {
		opps = append(opps, NewOpportunity(&dtos[i]))
	}
	return opps
}

// TopToken is the symbol with the highest mean positive spread.
type TopToken struct {
	Symbol        string   `json:"symbol"`
	AverageSpread float64  `json:"averageSpread"`
	Chains        []string `json:"chains"`
}

// DashboardStats are derived from the current opportunity list, never stored.
type DashboardStats struct {
	BestOpportunity *Opportunity `json:"bestOpportunity"`
	TopToken        *TopToken    `json:"topToken"`
}
