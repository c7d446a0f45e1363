package settings

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/katalvlaran/gridopf/formulation"
	"github.com/katalvlaran/gridopf/solve"
)

// defaults holds every recognized key. iispath is resolved per family.
var defaults = map[string]interface{}{
	KeyDoAC:                false,
	KeyDoDC:                false,
	KeyDoIV:                false,
	KeyUseEF:               true,
	KeyDoPolar:             false,
	KeySkipJabr:            true,
	KeyBranchSwitchingMIP:  false,
	KeyBranchSwitchingComp: false,
	KeyMinActiveBranches:   0.9,
	KeyUseQuadCostVar:      false,
	KeyUseActiveLossIneqs:  false,
	KeyUseMIPStart:         false,
	KeyIVType:              "aggressive",
	KeyFixTolerance:        1e-5,
	KeyUseMaxPhaseDiff:     false,
	KeyMaxPhaseDiff:        360.0,
	KeyTimeLimit:           0.0,
	KeyLPFilename:          "",
	KeyParamFile:           "",
	KeyLogFile:             "",
	KeyIISPath:             "",
	KeyVoltsFilename:       "",
	KeyUseVoltSolution:     false,
}

// Keys returns the recognized keys in sorted order.
func Keys() []string {
	out := make([]string, 0, len(defaults))
	for k := range defaults {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Default returns the settings of an empty file: exact rectangular AC.
func Default() *Settings {
	s, err := FromMap(nil, WithEnvPrefix(""))
	if err != nil {
		panic(err) // defaults are valid
	}
	return s
}

// Load reads a settings file. YAML, JSON and TOML files are read by
// extension; anything else is the line form
//
//	# comment
//	key [value]
//	voltsfilename <path> <tolerance>
//	END
//
// where a bare key means true. Environment overrides are applied on top.
func Load(path string, opts ...Option) (*Settings, error) {
	var (
		src map[string]interface{}
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".toml":
		raw := viper.New()
		raw.SetConfigFile(path)
		if err = raw.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("settings: read %s: %w", path, err)
		}
		src = raw.AllSettings()
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		defer f.Close()
		if src, err = ParseText(f); err != nil {
			return nil, err
		}
	}

	return FromMap(src, opts...)
}

// FromMap resolves explicit key/value pairs over the defaults.
func FromMap(src map[string]interface{}, opts ...Option) (*Settings, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if o.EnvPrefix != "" {
		v.SetEnvPrefix(o.EnvPrefix)
		v.AutomaticEnv()
	}

	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	clean := make(map[string]interface{}, len(src))
	for _, k := range keys {
		lk := strings.ToLower(k)
		if _, ok := defaults[lk]; !ok {
			return nil, &ConfigError{Key: k, Reason: "unrecognized option"}
		}
		clean[lk] = src[k]
	}
	if err := v.MergeConfigMap(clean); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, &ConfigError{Key: "*", Reason: err.Error()}
	}
	if err := s.validate(o.Logger); err != nil {
		return nil, err
	}

	o.Logger.Info("settings resolved",
		zap.Stringer("family", s.Family()),
		zap.Bool("polar", s.DoPolar),
		zap.Bool("branchswitching_mip", s.BranchSwitchingMIP),
		zap.Bool("branchswitching_comp", s.BranchSwitchingComp),
		zap.Float64("fixtolerance", s.FixTolerance),
		zap.String("iispath", s.IISPath),
	)
	for _, k := range Keys() {
		o.Logger.Debug("setting", zap.String("key", k), zap.Any("value", v.Get(k)))
	}

	return &s, nil
}

// validate enforces the option exclusions and fills derived defaults.
func (s *Settings) validate(log *zap.Logger) error {
	switch n := boolCount(s.DoAC, s.DoDC, s.DoIV); {
	case n > 1:
		return &ConfigError{Key: "doac/dodc/doiv", Reason: "at most one formulation family may be selected"}
	case n == 0:
		s.DoAC = true
		log.Info("settings: no formulation family selected, defaulting to AC",
			zap.String("key", KeyDoAC))
	}
	if s.BranchSwitchingMIP && s.BranchSwitchingComp {
		return &ConfigError{Key: KeyBranchSwitchingComp, Reason: "conflicts with branchswitching_mip"}
	}
	if s.MinActiveBranches < 0 || s.MinActiveBranches > 1 {
		return &ConfigError{Key: KeyMinActiveBranches, Reason: "must lie in [0, 1]"}
	}
	switch s.IVType {
	case "aggressive", "plain":
	default:
		return &ConfigError{Key: KeyIVType, Reason: fmt.Sprintf("unknown IV type %q", s.IVType)}
	}
	if s.FixTolerance < 0 {
		return &ConfigError{Key: KeyFixTolerance, Reason: "must be non-negative"}
	}
	if s.TimeLimit < 0 {
		return &ConfigError{Key: KeyTimeLimit, Reason: "must be non-negative"}
	}
	if s.UseMaxPhaseDiff && s.MaxPhaseDiff <= 0 {
		return &ConfigError{Key: KeyMaxPhaseDiff, Reason: "must be positive"}
	}
	if s.VoltsFilename != "" {
		if s.UseVoltSolution {
			return &ConfigError{Key: KeyVoltsFilename, Reason: "conflicts with usevoltsolution"}
		}
		if s.FixTolerance <= 0 {
			return &ConfigError{Key: KeyFixTolerance, Reason: "voltsfilename needs a positive tolerance"}
		}
	}
	if s.IISPath == "" {
		s.IISPath = solve.DefaultIISPath(s.Family())
	}

	return nil
}

func boolCount(bs ...bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

// ParseText reads the line form of a settings file into key/value pairs.
// Values stay strings; a bare key is true.
func ParseText(r io.Reader) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		key := strings.ToLower(fields[0])
		if fields[0] == "END" {
			break
		}
		if _, ok := defaults[key]; !ok {
			return nil, &ConfigError{Key: fields[0], Line: line, Reason: "unrecognized option"}
		}

		switch key {
		case KeyVoltsFilename:
			if len(fields) != 3 {
				return nil, &ConfigError{Key: key, Line: line, Reason: "needs a file name and a tolerance"}
			}
			if _, err := strconv.ParseFloat(fields[2], 64); err != nil {
				return nil, &ConfigError{Key: key, Line: line, Reason: "tolerance: " + err.Error()}
			}
			out[KeyVoltsFilename] = fields[1]
			out[KeyFixTolerance] = fields[2]
			continue
		case KeyUseMaxPhaseDiff:
			out[KeyUseMaxPhaseDiff] = true
			if len(fields) > 1 {
				out[KeyMaxPhaseDiff] = fields[1]
			}
			continue
		case KeyDoIV:
			out[KeyDoIV] = true
			out[KeyUseEF] = true
			if len(fields) > 1 {
				out[KeyIVType] = fields[1]
			}
			continue
		}

		switch len(fields) {
		case 1:
			out[key] = true
		case 2:
			out[key] = fields[1]
		default:
			return nil, &ConfigError{Key: key, Line: line, Reason: "takes at most one value"}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	return out, nil
}

// Family is the selected formulation family.
func (s *Settings) Family() formulation.Family {
	switch {
	case s.DoDC:
		return formulation.DC
	case s.DoIV:
		return formulation.IV
	}
	return formulation.AC
}

// BuildConfig maps the settings onto a formulation build. Without exact
// rectangular products (use_ef off) the cone relaxation stands in, as it
// does whenever skipjabr is off.
func (s *Settings) BuildConfig() formulation.BuildConfig {
	cfg := formulation.DefaultConfig()
	cfg.Family = s.Family()
	if s.DoPolar {
		cfg.Voltage = formulation.Polar
	}
	cfg.UseJabr = !s.SkipJabr || (!s.UseEF && !s.DoPolar)
	switch {
	case s.BranchSwitchingMIP:
		cfg.Switching = formulation.SwitchingMIP
	case s.BranchSwitchingComp:
		cfg.Switching = formulation.SwitchingComplementarity
	}
	cfg.MinActiveBranchFraction = s.MinActiveBranches
	cfg.UseActiveLossInequalities = s.UseActiveLossIneqs
	cfg.QuadraticCostAsAuxVar = s.UseQuadCostVar
	if s.IVType == "plain" {
		cfg.IVVariant = formulation.IVPlain
	}
	cfg.FixTolerance = s.FixTolerance

	return cfg
}

// Tuning is the solver parameter set the settings ask for.
func (s *Settings) Tuning() solve.Tuning {
	return solve.Tuning{TimeLimit: s.Limit(), ParamFile: s.ParamFile}
}
