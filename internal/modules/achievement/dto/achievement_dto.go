package dto

import "planetpulse.com/gamification/internal/entity"

type CatalogEntry struct {
	ID            uint                `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Icon          string              `json:"icon"`
	PointsReward  int                 `json:"points_reward"`
	CriteriaType  entity.CriteriaType `json:"criteria_type"`
	CriteriaValue int                 `json:"criteria_value"`
	Earned        bool                `json:"earned"`
}

// NewCatalog renders the catalog, flagging entries found in earned.
func NewCatalog(catalog []entity.Achievement, earned map[uint]struct{}) []CatalogEntry {
	out := make([]CatalogEntry, 0, len(catalog))
	for _, a := range catalog {
		_, ok := earned[a.ID]
		out = append(out, CatalogEntry{
			ID:            a.ID,
			Name:          a.Name,
			Description:   a.Description,
			Icon:          a.Icon,
			PointsReward:  a.PointsReward,
			CriteriaType:  a.CriteriaType,
			CriteriaValue: a.CriteriaValue,
			Earned:        ok,
		})
	}
	return out
}
