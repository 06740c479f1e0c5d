package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"planetpulse.com/gamification/internal/entity"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPointsReward applies to entries that omit points_reward.
const DefaultPointsReward = 50

//go:embed achievements.toml
var defaultCatalog []byte

type file struct {
	Achievements []definition `toml:"achievement"`
}

type definition struct {
	Name          string `toml:"name"`
	Description   string `toml:"description"`
	Icon          string `toml:"icon"`
	PointsReward  *int   `toml:"points_reward"`
	CriteriaType  string `toml:"criteria_type"`
	CriteriaValue int    `toml:"criteria_value"`
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) ([]entity.Achievement, error) {
	data := defaultCatalog
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read achievements file: %w", err)
		}
		data = raw
	}
	return Parse(data)
}

// Parse decodes a TOML catalog. Catalog order is the order of the entries.
func Parse(data []byte) ([]entity.Achievement, error) {
	var f file
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode achievements: %w", err)
	}

	if len(f.Achievements) == 0 {
		return nil, fmt.Errorf("achievement catalog has no entries")
	}

	seen := make(map[string]struct{}, len(f.Achievements))
	achievements := make([]entity.Achievement, 0, len(f.Achievements))
	for i, def := range f.Achievements {
		if def.Name == "" {
			return nil, fmt.Errorf("achievement #%d has no name", i+1)
		}
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("duplicate achievement %q", def.Name)
		}
		seen[def.Name] = struct{}{}

		criteria := entity.CriteriaType(def.CriteriaType)
		if !criteria.Valid() {
			return nil, fmt.Errorf("achievement %q: unknown criteria type %q", def.Name, def.CriteriaType)
		}
		reward := DefaultPointsReward
		if def.PointsReward != nil {
			reward = *def.PointsReward
		}
		if reward < 0 {
			return nil, fmt.Errorf("achievement %q: negative points reward", def.Name)
		}

		achievements = append(achievements, entity.Achievement{
			Name:          def.Name,
			Description:   def.Description,
			Icon:          def.Icon,
			PointsReward:  reward,
			CriteriaType:  criteria,
			CriteriaValue: def.CriteriaValue,
			SortOrder:     i,
			Active:        true,
		})
	}
	return achievements, nil
}
