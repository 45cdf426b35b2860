package profile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/wonny/spotcast/internal/contracts"
)

// Profile 백테스트/재평가 프로파일 (YAML)
// ⭐ SSOT: 롤링 평가 파라미터 파일 형식은 여기서만 정의
type Profile struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Horizon  int      `yaml:"horizon_hours" json:"horizon_hours"`
	Backtest Backtest `yaml:"backtest" json:"backtest"`
}

// Meta 프로파일 식별 정보
type Meta struct {
	ProfileID   string `yaml:"profile_id" json:"profile_id"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Backtest 롤링 윈도우 설정
type Backtest struct {
	WindowSize int `yaml:"window_size" json:"window_size"`
	StepSize   int `yaml:"step_size" json:"step_size"`
}

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var profileIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Load reads a YAML profile and returns it with the raw bytes
// KnownFields(true): 오타/미사용 필드 즉시 실패
func Load(path string) (*Profile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	p, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return p, data, nil
}

// Parse decodes and validates a YAML profile. step_size defaults to 1.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	if p.Backtest.StepSize == 0 {
		p.Backtest.StepSize = 1
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks required fields and ranges
func Validate(p *Profile) error {
	if p.Meta.ProfileID == "" {
		return ValidationError{"meta.profile_id", "required"}
	}
	if !profileIDPattern.MatchString(p.Meta.ProfileID) {
		return ValidationError{"meta.profile_id", "must match " + profileIDPattern.String()}
	}
	if p.Horizon <= 0 {
		return ValidationError{"horizon_hours", "must be > 0"}
	}
	if err := p.Window().Validate(); err != nil {
		return ValidationError{"backtest", err.Error()}
	}
	return nil
}

// Window returns the rolling window config
func (p *Profile) Window() contracts.RollingWindowConfig {
	return contracts.RollingWindowConfig{
		WindowSize: p.Backtest.WindowSize,
		StepSize:   p.Backtest.StepSize,
	}
}

// Hash SHA256 of the canonical JSON form
// struct 필드 순서가 고정이라 같은 설정이면 같은 해시
func Hash(p *Profile) (string, error) {
	if p == nil {
		return "", errors.New("nil profile")
	}

	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
