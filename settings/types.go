package settings

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sentinel errors for settings.
var (
	// ErrConfig is wrapped by every ConfigError.
	ErrConfig = errors.New("settings: invalid configuration")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("settings: invalid option supplied")
)

// ConfigError names the offending key. Line is set for text settings
// files.
type ConfigError struct {
	Key    string
	Line   int
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("settings: line %d: %s: %s", e.Line, e.Key, e.Reason)
	}
	return fmt.Sprintf("settings: %s: %s", e.Key, e.Reason)
}

// Unwrap makes errors.Is(err, ErrConfig) hold.
func (e *ConfigError) Unwrap() error { return ErrConfig }

// Recognized keys.
const (
	KeyDoAC                = "doac"
	KeyDoDC                = "dodc"
	KeyDoIV                = "doiv"
	KeyUseEF               = "use_ef"
	KeyDoPolar             = "dopolar"
	KeySkipJabr            = "skipjabr"
	KeyBranchSwitchingMIP  = "branchswitching_mip"
	KeyBranchSwitchingComp = "branchswitching_comp"
	KeyMinActiveBranches   = "minactivebranches"
	KeyUseQuadCostVar      = "usequadcostvar"
	KeyUseActiveLossIneqs  = "useactivelossineqs"
	KeyUseMIPStart         = "usemipstart"
	KeyIVType              = "ivtype"
	KeyFixTolerance        = "fixtolerance"
	KeyUseMaxPhaseDiff     = "usemaxphasediff"
	KeyMaxPhaseDiff        = "maxphasediff"
	KeyTimeLimit           = "timelimit"
	KeyLPFilename          = "lpfilename"
	KeyParamFile           = "paramfile"
	KeyLogFile             = "logfile"
	KeyIISPath             = "iispath"
	KeyVoltsFilename       = "voltsfilename"
	KeyUseVoltSolution     = "usevoltsolution"
)

// Settings is the complete, validated option set of one run.
type Settings struct {
	DoAC bool `mapstructure:"doac"`
	DoDC bool `mapstructure:"dodc"`
	DoIV bool `mapstructure:"doiv"`

	UseEF    bool `mapstructure:"use_ef"`
	DoPolar  bool `mapstructure:"dopolar"`
	SkipJabr bool `mapstructure:"skipjabr"`

	BranchSwitchingMIP  bool    `mapstructure:"branchswitching_mip"`
	BranchSwitchingComp bool    `mapstructure:"branchswitching_comp"`
	MinActiveBranches   float64 `mapstructure:"minactivebranches"`

	UseQuadCostVar     bool   `mapstructure:"usequadcostvar"`
	UseActiveLossIneqs bool   `mapstructure:"useactivelossineqs"`
	UseMIPStart        bool   `mapstructure:"usemipstart"`
	IVType             string `mapstructure:"ivtype"`

	FixTolerance    float64 `mapstructure:"fixtolerance"`
	UseMaxPhaseDiff bool    `mapstructure:"usemaxphasediff"`
	MaxPhaseDiff    float64 `mapstructure:"maxphasediff"` // degrees

	// TimeLimit in seconds; 0 means none.
	TimeLimit float64 `mapstructure:"timelimit"`

	LPFilename      string `mapstructure:"lpfilename"`
	ParamFile       string `mapstructure:"paramfile"`
	LogFile         string `mapstructure:"logfile"`
	IISPath         string `mapstructure:"iispath"`
	VoltsFilename   string `mapstructure:"voltsfilename"`
	UseVoltSolution bool   `mapstructure:"usevoltsolution"`
}

// Limit is TimeLimit as a duration.
func (s *Settings) Limit() time.Duration {
	return time.Duration(s.TimeLimit * float64(time.Second))
}

// Option configures a load.
type Option func(*Options)

// Options controls where overrides come from.
type Options struct {
	Logger *zap.Logger
	// EnvPrefix enables environment overrides PREFIX_KEY; empty disables.
	EnvPrefix string
	err       error
}

// DefaultOptions reads GRIDOPF_* overrides and logs nowhere.
func DefaultOptions() Options {
	return Options{Logger: zap.NewNop(), EnvPrefix: "GRIDOPF"}
}

// WithLogger sets the logger the resolved settings are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l == nil {
			o.err = fmt.Errorf("%w: nil logger", ErrOptionViolation)
			return
		}
		o.Logger = l
	}
}

// WithEnvPrefix changes the environment prefix; "" turns overrides off.
func WithEnvPrefix(prefix string) Option {
	return func(o *Options) {
		o.EnvPrefix = prefix
	}
}
