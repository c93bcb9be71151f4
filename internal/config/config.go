package config

import (
	"os"
	"strconv"
	"time"

	"github.com/Swapnil565/Jarvis/domain/forecast"
	"github.com/Swapnil565/Jarvis/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	AI        AIConfig
	Analytics AnalyticsConfig
	Forecast  ForecastConfig
	Workflow  WorkflowConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// AIConfig holds LLM text-generation settings. A missing key is not an
// error: the pipeline falls back to templated messages.
type AIConfig struct {
	OpenAIKey   string
	OpenAIModel string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// AnalyticsConfig tunes the correlation detectors.
type AnalyticsConfig struct {
	LookbackDays     int     // event history window for one scan
	MinSampleSize    int     // minimum-evidence gate (days/events)
	ImprovementRatio float64 // cross-dimensional group-mean improvement gate
	StreakThreshold  int     // consecutive high-intensity days before overtraining
	AnomalySigma     float64 // temporal bucket deviation gate, in std deviations
	StaleAfter       time.Duration
}

// ForecastConfig tunes the forecasting strategies and the burnout formula.
type ForecastConfig struct {
	LookbackDays   int // event history window feeding the series
	HorizonDays    int
	Alpha          float64 // exponential smoothing factor
	TrendMinPoints int     // minimum series length for the trend strategy
	SeasonalMin    int     // minimum series length for the seasonal strategy
	CrashThreshold float64 // energy score treated as a crash
	Bands          forecast.CategoryBands
	Weights        forecast.BurnoutWeights
	CutPoints      forecast.CrashCutPoints
	Series         forecast.SeriesWeights
}

// WorkflowConfig tunes the orchestrator.
type WorkflowConfig struct {
	PeriodicBudget  time.Duration // overall periodic workflow timeout
	EventBudget     time.Duration // event-triggered workflow timeout
	CacheTTL        time.Duration // per-user result cache freshness
	CacheMaxEntries int
	InterventionCap int
	DedupWindow     time.Duration
	BurnoutAlert    float64 // burnout score above which crash-risk interventions fire
	RetryAttempts   int // idempotent read retries against external stores
	RetryBackoff    time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		AI: AIConfig{
			OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
			OpenAIModel: envString("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:     os.Getenv("OPENAI_BASE_URL"),
			MaxTokens:   envInt("AI_MAX_TOKENS", 256),
			Temperature: envFloat("AI_TEMPERATURE", 0.4),
			Timeout:     envDuration("AI_TIMEOUT", 5*time.Second),
			CacheTTL:    envDuration("AI_CACHE_TTL", 24*time.Hour),
		},
		Analytics: AnalyticsConfig{
			LookbackDays:     envInt("ANALYTICS_LOOKBACK_DAYS", 90),
			MinSampleSize:    envInt("ANALYTICS_MIN_SAMPLE", 14),
			ImprovementRatio: envFloat("ANALYTICS_IMPROVEMENT_RATIO", 0.30),
			StreakThreshold:  envInt("ANALYTICS_STREAK_THRESHOLD", 7),
			AnomalySigma:     envFloat("ANALYTICS_ANOMALY_SIGMA", 2.0),
			StaleAfter:       envDuration("ANALYTICS_STALE_AFTER", 30*24*time.Hour),
		},
		Forecast: ForecastConfig{
			LookbackDays:   envInt("FORECAST_LOOKBACK_DAYS", 30),
			HorizonDays:    envInt("FORECAST_HORIZON_DAYS", forecast.DefaultHorizonDays),
			Alpha:          envFloat("FORECAST_ALPHA", 0.3),
			TrendMinPoints: envInt("FORECAST_TREND_MIN_POINTS", 10),
			SeasonalMin:    envInt("FORECAST_SEASONAL_MIN_POINTS", 14),
			CrashThreshold: envFloat("FORECAST_CRASH_THRESHOLD", 30),
			Bands: forecast.CategoryBands{
				HighCapacity: envFloat("FORECAST_BAND_HIGH_CAPACITY", 70),
				LowCapacity:  envFloat("FORECAST_BAND_LOW_CAPACITY", 40),
				HighDemand:   envFloat("FORECAST_BAND_HIGH_DEMAND", 70),
				LowDemand:    envFloat("FORECAST_BAND_LOW_DEMAND", 40),
			},
			Weights: forecast.BurnoutWeights{
				CNSFatigue:         envFloat("BURNOUT_WEIGHT_CNS", 1.0),
				WorkPressure:       envFloat("BURNOUT_WEIGHT_PRESSURE", 1.0),
				RecoveryDeficit:    envFloat("BURNOUT_WEIGHT_RECOVERY", 1.0),
				IntensityScale:     envFloat("BURNOUT_INTENSITY_SCALE", 4.0),
				DeadlineMultiplier: envFloat("BURNOUT_DEADLINE_MULTIPLIER", 1.5),
				StressMultiplier:   envFloat("BURNOUT_STRESS_MULTIPLIER", 3.0),
			},
			CutPoints: forecast.CrashCutPoints{
				Low:  envFloat("CRASH_CUT_LOW", 30),
				High: envFloat("CRASH_CUT_HIGH", 60),
			},
			Series: forecast.SeriesWeights{
				CapacityBaseline: envFloat("FORECAST_SERIES_BASELINE", 70),
				RecoveryCredit:   envFloat("FORECAST_SERIES_RECOVERY_CREDIT", 10),
				OpenTaskLoad:     envFloat("FORECAST_SERIES_OPEN_TASK_LOAD", 8),
				CompletedLoad:    envFloat("FORECAST_SERIES_COMPLETED_LOAD", 4),
			},
		},
		Workflow: WorkflowConfig{
			PeriodicBudget:  envDuration("WORKFLOW_PERIODIC_BUDGET", 10*time.Second),
			EventBudget:     envDuration("WORKFLOW_EVENT_BUDGET", 2*time.Second),
			CacheTTL:        envDuration("WORKFLOW_CACHE_TTL", 24*time.Hour),
			CacheMaxEntries: envInt("WORKFLOW_CACHE_MAX_ENTRIES", 10000),
			InterventionCap: envInt("WORKFLOW_INTERVENTION_CAP", 5),
			DedupWindow:     envDuration("WORKFLOW_DEDUP_WINDOW", 24*time.Hour),
			BurnoutAlert:    envFloat("WORKFLOW_BURNOUT_ALERT", 80),
			RetryAttempts:   envInt("WORKFLOW_RETRY_ATTEMPTS", 2),
			RetryBackoff:    envDuration("WORKFLOW_RETRY_BACKOFF", 200*time.Millisecond),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Forecast.Alpha <= 0 || c.Forecast.Alpha >= 1 {
		return errors.ConfigInvalid("FORECAST_ALPHA must be in (0,1)")
	}
	if c.Forecast.HorizonDays < 1 {
		return errors.ConfigInvalid("FORECAST_HORIZON_DAYS must be at least 1")
	}
	if c.Analytics.MinSampleSize < 1 {
		return errors.ConfigInvalid("ANALYTICS_MIN_SAMPLE must be at least 1")
	}
	if c.Workflow.InterventionCap < 1 {
		return errors.ConfigInvalid("WORKFLOW_INTERVENTION_CAP must be at least 1")
	}
	if c.Workflow.BurnoutAlert <= 0 || c.Workflow.BurnoutAlert > 100 {
		return errors.ConfigInvalid("WORKFLOW_BURNOUT_ALERT must be in (0,100]")
	}
	if c.Workflow.EventBudget > c.Workflow.PeriodicBudget {
		return errors.ConfigInvalid("WORKFLOW_EVENT_BUDGET must not exceed WORKFLOW_PERIODIC_BUDGET")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
