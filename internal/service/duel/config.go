package duel

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6}$`)

// Limits bounds the timed-mode time limit.
type Limits struct {
	MinTimeLimitSec     int
	MaxTimeLimitSec     int
	DefaultTimeLimitSec int
}

// DefaultLimits returns the limits used when none are configured
func DefaultLimits() Limits {
	return Limits{
		MinTimeLimitSec:     5,
		MaxTimeLimitSec:     300,
		DefaultTimeLimitSec: 30,
	}
}

// NormalizeConfig validates game settings and fills defaults.
func NormalizeConfig(cfg entity.GameConfig, limits Limits) (entity.GameConfig, error) {
	cfg.Category = strings.ToLower(strings.TrimSpace(cfg.Category))
	cfg.Topic = strings.TrimSpace(cfg.Topic)
	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))

	switch cfg.Category {
	case entity.CategoryMath, entity.CategoryEnglish:
	default:
		return cfg, fmt.Errorf("%w: invalid category %q, expected math or english", apperrors.ErrValidation, cfg.Category)
	}

	if cfg.NumRounds < entity.MinRounds || cfg.NumRounds > entity.MaxRounds {
		return cfg, fmt.Errorf("%w: number of rounds must be between %d and %d", apperrors.ErrValidation, entity.MinRounds, entity.MaxRounds)
	}

	switch cfg.Mode {
	case "":
		cfg.Mode = entity.GameModeFast
		cfg.TimeLimitSec = 0
	case entity.GameModeFast:
		cfg.TimeLimitSec = 0
	case entity.GameModeTimed:
		if cfg.TimeLimitSec == 0 {
			cfg.TimeLimitSec = limits.DefaultTimeLimitSec
		}
		if cfg.TimeLimitSec < limits.MinTimeLimitSec || cfg.TimeLimitSec > limits.MaxTimeLimitSec {
			return cfg, fmt.Errorf("%w: time limit must be between %d and %d seconds", apperrors.ErrValidation, limits.MinTimeLimitSec, limits.MaxTimeLimitSec)
		}
	default:
		return cfg, fmt.Errorf("%w: invalid mode %q, expected fast or timed", apperrors.ErrValidation, cfg.Mode)
	}

	return cfg, nil
}

// GenerateCode returns a random 6-character game code.
func GenerateCode() (string, error) {
	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, entity.GameCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate game code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// NormalizeCode upper-cases a user supplied code and reports whether it is well formed.
func NormalizeCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	return code, codePattern.MatchString(code)
}
