package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Providers Providers     `mapstructure:"providers"`
	Planner   PlannerConfig `mapstructure:"planner"`
}

// Providers holds endpoints and timeouts for the external data providers.
type Providers struct {
	Overpass struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"overpass"`
	Nominatim struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"nominatim"`
	Routing struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"routing"`
	Wikipedia struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"wikipedia"`
	Weather struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"weather"`
}

// PlannerConfig keeps the packing knobs and scoring magnitudes as data so
// they can be retuned without touching the algorithm.
type PlannerConfig struct {
	SearchRadiusSpeedKmph  float64        `mapstructure:"searchRadiusSpeedKmph"`
	MinSearchRadiusKm      float64        `mapstructure:"minSearchRadiusKm"`
	MinViableActivityHrs   float64        `mapstructure:"minViableActivityHrs"`
	MaxWaitTimeHrs         float64        `mapstructure:"maxWaitTimeHrs"`
	ShortlistSize          int            `mapstructure:"shortlistSize"`
	RouteChunkSize         int            `mapstructure:"routeChunkSize"`
	RouteChunkPause        time.Duration  `mapstructure:"routeChunkPause"`
	BreakThresholdHrs      float64        `mapstructure:"breakThresholdHrs"`
	EnrichmentConcurrency  int64          `mapstructure:"enrichmentConcurrency"`
	SerendipityConcurrency int64          `mapstructure:"serendipityConcurrency"`
	SerendipitySampleSize  int            `mapstructure:"serendipitySampleSize"`
	InsertionGraceHrs      float64        `mapstructure:"insertionGraceHrs"`
	Costs                  CostDefaults   `mapstructure:"costs"`
	Scoring                ScoringWeights `mapstructure:"scoring"`
}

// CostDefaults are the per-category visit duration and cost assumptions.
type CostDefaults struct {
	BaseFareDriving    float64 `mapstructure:"baseFareDriving"`
	PerKmDriving       float64 `mapstructure:"perKmDriving"`
	DefaultActivityHrs float64 `mapstructure:"defaultActivityHrs"`
	DefaultEntryCost   float64 `mapstructure:"defaultEntryCost"`
	MealDurationHrs    float64 `mapstructure:"mealDurationHrs"`
	MealCost           float64 `mapstructure:"mealCost"`
	SnackDurationHrs   float64 `mapstructure:"snackDurationHrs"`
	SnackCost          float64 `mapstructure:"snackCost"`
	DessertDurationHrs float64 `mapstructure:"dessertDurationHrs"`
	DessertCost        float64 `mapstructure:"dessertCost"`
}

// ScoringWeights are additive bonus/penalty magnitudes. Disqualifying values
// must stay far below any reachable sum of bonuses.
type ScoringWeights struct {
	KeywordDiscoveryBonus     int     `mapstructure:"keywordDiscoveryBonus"`
	PreferenceCoverageBonus   int     `mapstructure:"preferenceCoverageBonus"`
	DiversificationBonus      int     `mapstructure:"diversificationBonus"`
	WikiNotabilityFood        int     `mapstructure:"wikiNotabilityFood"`
	WikiNotabilityShop        int     `mapstructure:"wikiNotabilityShop"`
	SignificanceSights        int     `mapstructure:"significanceSights"`
	SignificancePark          int     `mapstructure:"significancePark"`
	GenericNotability         int     `mapstructure:"genericNotability"`
	AuthenticityFood          int     `mapstructure:"authenticityFood"`
	AuthenticityShop          int     `mapstructure:"authenticityShop"`
	GenericFastFoodPenalty    int     `mapstructure:"genericFastFoodPenalty"`
	GenericStoreNamePenalty   int     `mapstructure:"genericStoreNamePenalty"`
	ShoppingMallBoost         int     `mapstructure:"shoppingMallBoost"`
	SouvenirGiftCraftArtBoost int     `mapstructure:"souvenirGiftCraftArtBoost"`
	GeneralShopPenalty        int     `mapstructure:"generalShopPenalty"`
	SimilarActivityPenalty    int     `mapstructure:"similarActivityPenalty"`
	ChainDisqualifyScore      int     `mapstructure:"chainDisqualifyScore"`
	DistancePenaltyPerKm      int     `mapstructure:"distancePenaltyPerKm"`
	DistanceFreeKm            float64 `mapstructure:"distanceFreeKm"`
	TravelHourPenalty         int     `mapstructure:"travelHourPenalty"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}

// DefaultPlanner returns the tuned planner configuration mirrored by the
// embedded config file. Tests build planners from this.
func DefaultPlanner() PlannerConfig {
	return PlannerConfig{
		SearchRadiusSpeedKmph:  20.0,
		MinSearchRadiusKm:      1.0,
		MinViableActivityHrs:   0.4,
		MaxWaitTimeHrs:         1.5,
		ShortlistSize:          30,
		RouteChunkSize:         5,
		RouteChunkPause:        time.Second,
		BreakThresholdHrs:      0.25,
		EnrichmentConcurrency:  20,
		SerendipityConcurrency: 10,
		SerendipitySampleSize:  10,
		InsertionGraceHrs:      1.0,
		Costs: CostDefaults{
			BaseFareDriving:    30.0,
			PerKmDriving:       15.0,
			DefaultActivityHrs: 1.0,
			DefaultEntryCost:   0.0,
			MealDurationHrs:    1.0,
			MealCost:           500.0,
			SnackDurationHrs:   0.5,
			SnackCost:          150.0,
			DessertDurationHrs: 0.4,
			DessertCost:        100.0,
		},
		Scoring: ScoringWeights{
			KeywordDiscoveryBonus:     500,
			PreferenceCoverageBonus:   350,
			DiversificationBonus:      200,
			WikiNotabilityFood:        50,
			WikiNotabilityShop:        40,
			SignificanceSights:        120,
			SignificancePark:          80,
			GenericNotability:         50,
			AuthenticityFood:          40,
			AuthenticityShop:          40,
			GenericFastFoodPenalty:    -60,
			GenericStoreNamePenalty:   -10000,
			ShoppingMallBoost:         40,
			SouvenirGiftCraftArtBoost: 50,
			GeneralShopPenalty:        -50,
			SimilarActivityPenalty:    -150,
			ChainDisqualifyScore:      -9999,
			DistancePenaltyPerKm:      50,
			DistanceFreeKm:            5.0,
			TravelHourPenalty:         50,
		},
	}
}
