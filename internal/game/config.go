package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config carries every tunable the engine reads. It is loaded once at
// startup (file first, then environment overrides) and treated as immutable
// for the rest of the epoch.
type Config struct {
	ServerPort int  `json:"server_port" env:"SERVER_PORT"`
	EnableBank bool `json:"enable_bank" env:"ENABLE_BANK"`

	StartingCredits  int     `json:"starting_credits" env:"STARTING_CREDITS"`
	BankInterestRate float64 `json:"bank_interest_rate" env:"BANK_INTEREST_RATE"`

	VictoryPlanetOwnershipPct float64 `json:"victory_planet_ownership_pct" env:"VICTORY_PLANET_OWNERSHIP_PCT"`
	VictoryAuthorityMin       int     `json:"victory_authority_min" env:"VICTORY_AUTHORITY_MIN"`
	VictoryAuthorityMax       int     `json:"victory_authority_max" env:"VICTORY_AUTHORITY_MAX"`
	VictoryFrontierMin        int     `json:"victory_frontier_min" env:"VICTORY_FRONTIER_MIN"`
	VictoryFrontierMax        int     `json:"victory_frontier_max" env:"VICTORY_FRONTIER_MAX"`
	VictoryResetDays          int     `json:"victory_reset_days" env:"VICTORY_RESET_DAYS"`
	VictoryCheckMinutes       int     `json:"victory_check_minutes" env:"VICTORY_CHECK_MINUTES"`

	EnableSpecialWeapons           bool    `json:"enable_special_weapons" env:"ENABLE_SPECIAL_WEAPONS"`
	SpecialWeaponCooldownHours     float64 `json:"combat_special_weapon_cooldown_hours" env:"SPECIAL_WEAPON_COOLDOWN_HOURS"`
	SpecialWeaponDamageMultiplier  float64 `json:"combat_special_weapon_damage_multiplier" env:"SPECIAL_WEAPON_DAMAGE_MULTIPLIER"`
	CombatWinStreakBonusPerWin     float64 `json:"combat_win_streak_bonus_per_win" env:"COMBAT_WIN_STREAK_BONUS_PER_WIN"`
	CombatWinStreakBonusCap        float64 `json:"combat_win_streak_bonus_cap" env:"COMBAT_WIN_STREAK_BONUS_CAP"`
	CombatMaxRounds                int     `json:"combat_max_rounds" env:"COMBAT_MAX_ROUNDS"`
	PlanetPricePenaltyMultiplier   float64 `json:"planet_price_penalty_multiplier" env:"PLANET_PRICE_PENALTY_MULTIPLIER"`
	PlanetPricePenaltySeconds      int     `json:"planet_price_penalty_seconds" env:"PLANET_PRICE_PENALTY_SECONDS"`
	PlanetDefenseRegenSeconds      int     `json:"planet_defense_regen_seconds" env:"PLANET_DEFENSE_REGEN_SECONDS"`
	PlanetDefenseRegenFighters     int     `json:"planet_defense_regen_fighters" env:"PLANET_DEFENSE_REGEN_FIGHTERS"`
	PlanetDefenseRegenShieldPoints int     `json:"planet_defense_regen_shield_points" env:"PLANET_DEFENSE_REGEN_SHIELD_POINTS"`

	MarketPriceSensitivity float64 `json:"market_price_sensitivity" env:"MARKET_PRICE_SENSITIVITY"`
	MarketPriceMinMult     float64 `json:"market_price_min_mult" env:"MARKET_PRICE_MIN_MULT"`
	MarketPriceMaxMult     float64 `json:"market_price_max_mult" env:"MARKET_PRICE_MAX_MULT"`
	SalvageSellMultiplier  float64 `json:"salvage_sell_multiplier" env:"SALVAGE_SELL_MULTIPLIER"`

	ContrabandDetectionBase         float64 `json:"contraband_detection_base" env:"CONTRABAND_DETECTION_BASE"`
	ContrabandDetectionSecurityStep float64 `json:"contraband_detection_security_step" env:"CONTRABAND_DETECTION_SECURITY_STEP"`
	ContrabandDetectionBribeRelief  float64 `json:"contraband_detection_bribe_relief" env:"CONTRABAND_DETECTION_BRIBE_RELIEF"`
	ContrabandFineMultiplier        float64 `json:"contraband_fine_multiplier" env:"CONTRABAND_FINE_MULTIPLIER"`

	BarredPlanetHours float64 `json:"barred_planet_hours" env:"BARRED_PLANET_HOURS"`

	IdleUnauthenticatedSeconds int `json:"idle_unauthenticated_seconds" env:"IDLE_UNAUTHENTICATED_SECONDS"`
	ActionRateLimitPerSecond   int `json:"action_rate_limit_per_second" env:"ACTION_RATE_LIMIT_PER_SECOND"`
	ActionRateLimitBurst       int `json:"action_rate_limit_burst" env:"ACTION_RATE_LIMIT_BURST"`

	CheckpointSeconds         int `json:"checkpoint_seconds" env:"CHECKPOINT_SECONDS"`
	CheckpointFreezeThreshold int `json:"checkpoint_freeze_threshold" env:"CHECKPOINT_FREEZE_THRESHOLD"`

	MailInboxLimit   int `json:"mail_inbox_limit" env:"MAIL_INBOX_LIMIT"`
	MailArchiveLimit int `json:"mail_archive_limit" env:"MAIL_ARCHIVE_LIMIT"`
	MailBodyLimit    int `json:"mail_body_limit" env:"MAIL_BODY_LIMIT"`
	NewsRetention    int `json:"news_retention" env:"NEWS_RETENTION"`
}

// DefaultConfig returns the stock settings used when no file or environment
// override is present.
func DefaultConfig() Config {
	return Config{
		ServerPort:                      8765,
		EnableBank:                      true,
		StartingCredits:                 200,
		BankInterestRate:                0.05,
		VictoryPlanetOwnershipPct:       60,
		VictoryAuthorityMin:             -100,
		VictoryAuthorityMax:             100,
		VictoryFrontierMin:              -100,
		VictoryFrontierMax:              100,
		VictoryResetDays:                7,
		VictoryCheckMinutes:             10,
		EnableSpecialWeapons:            true,
		SpecialWeaponCooldownHours:      6,
		SpecialWeaponDamageMultiplier:   2.5,
		CombatWinStreakBonusPerWin:      0.04,
		CombatWinStreakBonusCap:         0.25,
		CombatMaxRounds:                 25,
		PlanetPricePenaltyMultiplier:    1.75,
		PlanetPricePenaltySeconds:       86400,
		PlanetDefenseRegenSeconds:       14400,
		PlanetDefenseRegenFighters:      1,
		PlanetDefenseRegenShieldPoints:  10,
		MarketPriceSensitivity:          0.8,
		MarketPriceMinMult:              0.5,
		MarketPriceMaxMult:              2.0,
		SalvageSellMultiplier:           0.55,
		ContrabandDetectionBase:         0.10,
		ContrabandDetectionSecurityStep: 0.15,
		ContrabandDetectionBribeRelief:  0.08,
		ContrabandFineMultiplier:        1.5,
		BarredPlanetHours:               24,
		IdleUnauthenticatedSeconds:      120,
		ActionRateLimitPerSecond:        8,
		ActionRateLimitBurst:            16,
		CheckpointSeconds:               60,
		CheckpointFreezeThreshold:       5,
		MailInboxLimit:                  20,
		MailArchiveLimit:                20,
		MailBodyLimit:                   500,
		NewsRetention:                   100,
	}
}

// LoadConfig reads the settings file when it exists, applies environment
// overrides, and validates the result. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config file: %w", err)
		default:
			var wrapper struct {
				Settings *Config `json:"settings"`
			}
			if err := json.Unmarshal(data, &wrapper); err != nil {
				return Config{}, fmt.Errorf("decode config file: %w", err)
			}
			if wrapper.Settings != nil {
				cfg = *wrapper.Settings
				fillConfigDefaults(&cfg)
			}
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fillConfigDefaults restores defaults for fields a partial settings file
// left at their zero value. Boolean flags keep whatever the file said.
func fillConfigDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.ServerPort == 0 {
		cfg.ServerPort = def.ServerPort
	}
	if cfg.StartingCredits == 0 {
		cfg.StartingCredits = def.StartingCredits
	}
	if cfg.BankInterestRate == 0 {
		cfg.BankInterestRate = def.BankInterestRate
	}
	if cfg.VictoryPlanetOwnershipPct == 0 {
		cfg.VictoryPlanetOwnershipPct = def.VictoryPlanetOwnershipPct
	}
	if cfg.VictoryAuthorityMin == 0 && cfg.VictoryAuthorityMax == 0 {
		cfg.VictoryAuthorityMin = def.VictoryAuthorityMin
		cfg.VictoryAuthorityMax = def.VictoryAuthorityMax
	}
	if cfg.VictoryFrontierMin == 0 && cfg.VictoryFrontierMax == 0 {
		cfg.VictoryFrontierMin = def.VictoryFrontierMin
		cfg.VictoryFrontierMax = def.VictoryFrontierMax
	}
	if cfg.VictoryResetDays == 0 {
		cfg.VictoryResetDays = def.VictoryResetDays
	}
	if cfg.VictoryCheckMinutes == 0 {
		cfg.VictoryCheckMinutes = def.VictoryCheckMinutes
	}
	if cfg.SpecialWeaponCooldownHours == 0 {
		cfg.SpecialWeaponCooldownHours = def.SpecialWeaponCooldownHours
	}
	if cfg.SpecialWeaponDamageMultiplier == 0 {
		cfg.SpecialWeaponDamageMultiplier = def.SpecialWeaponDamageMultiplier
	}
	if cfg.CombatWinStreakBonusPerWin == 0 {
		cfg.CombatWinStreakBonusPerWin = def.CombatWinStreakBonusPerWin
	}
	if cfg.CombatWinStreakBonusCap == 0 {
		cfg.CombatWinStreakBonusCap = def.CombatWinStreakBonusCap
	}
	if cfg.CombatMaxRounds == 0 {
		cfg.CombatMaxRounds = def.CombatMaxRounds
	}
	if cfg.PlanetPricePenaltyMultiplier == 0 {
		cfg.PlanetPricePenaltyMultiplier = def.PlanetPricePenaltyMultiplier
	}
	if cfg.PlanetPricePenaltySeconds == 0 {
		cfg.PlanetPricePenaltySeconds = def.PlanetPricePenaltySeconds
	}
	if cfg.PlanetDefenseRegenSeconds == 0 {
		cfg.PlanetDefenseRegenSeconds = def.PlanetDefenseRegenSeconds
	}
	if cfg.PlanetDefenseRegenFighters == 0 {
		cfg.PlanetDefenseRegenFighters = def.PlanetDefenseRegenFighters
	}
	if cfg.PlanetDefenseRegenShieldPoints == 0 {
		cfg.PlanetDefenseRegenShieldPoints = def.PlanetDefenseRegenShieldPoints
	}
	if cfg.MarketPriceSensitivity == 0 {
		cfg.MarketPriceSensitivity = def.MarketPriceSensitivity
	}
	if cfg.MarketPriceMinMult == 0 {
		cfg.MarketPriceMinMult = def.MarketPriceMinMult
	}
	if cfg.MarketPriceMaxMult == 0 {
		cfg.MarketPriceMaxMult = def.MarketPriceMaxMult
	}
	if cfg.SalvageSellMultiplier == 0 {
		cfg.SalvageSellMultiplier = def.SalvageSellMultiplier
	}
	if cfg.ContrabandDetectionBase == 0 {
		cfg.ContrabandDetectionBase = def.ContrabandDetectionBase
	}
	if cfg.ContrabandDetectionSecurityStep == 0 {
		cfg.ContrabandDetectionSecurityStep = def.ContrabandDetectionSecurityStep
	}
	if cfg.ContrabandDetectionBribeRelief == 0 {
		cfg.ContrabandDetectionBribeRelief = def.ContrabandDetectionBribeRelief
	}
	if cfg.ContrabandFineMultiplier == 0 {
		cfg.ContrabandFineMultiplier = def.ContrabandFineMultiplier
	}
	if cfg.BarredPlanetHours == 0 {
		cfg.BarredPlanetHours = def.BarredPlanetHours
	}
	if cfg.IdleUnauthenticatedSeconds == 0 {
		cfg.IdleUnauthenticatedSeconds = def.IdleUnauthenticatedSeconds
	}
	if cfg.ActionRateLimitPerSecond == 0 {
		cfg.ActionRateLimitPerSecond = def.ActionRateLimitPerSecond
	}
	if cfg.ActionRateLimitBurst == 0 {
		cfg.ActionRateLimitBurst = def.ActionRateLimitBurst
	}
	if cfg.CheckpointSeconds == 0 {
		cfg.CheckpointSeconds = def.CheckpointSeconds
	}
	if cfg.CheckpointFreezeThreshold == 0 {
		cfg.CheckpointFreezeThreshold = def.CheckpointFreezeThreshold
	}
	if cfg.MailInboxLimit == 0 {
		cfg.MailInboxLimit = def.MailInboxLimit
	}
	if cfg.MailArchiveLimit == 0 {
		cfg.MailArchiveLimit = def.MailArchiveLimit
	}
	if cfg.MailBodyLimit == 0 {
		cfg.MailBodyLimit = def.MailBodyLimit
	}
	if cfg.NewsRetention == 0 {
		cfg.NewsRetention = def.NewsRetention
	}
}

func (c Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("server_port %d out of range", c.ServerPort)
	}
	if c.MarketPriceMinMult <= 0 || c.MarketPriceMaxMult < c.MarketPriceMinMult {
		return fmt.Errorf("market price bounds %.2f..%.2f invalid", c.MarketPriceMinMult, c.MarketPriceMaxMult)
	}
	if c.VictoryPlanetOwnershipPct <= 0 || c.VictoryPlanetOwnershipPct > 100 {
		return fmt.Errorf("victory_planet_ownership_pct %.1f out of range", c.VictoryPlanetOwnershipPct)
	}
	if c.VictoryAuthorityMin > c.VictoryAuthorityMax {
		return fmt.Errorf("victory authority bounds inverted")
	}
	if c.VictoryFrontierMin > c.VictoryFrontierMax {
		return fmt.Errorf("victory frontier bounds inverted")
	}
	return nil
}
