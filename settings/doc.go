// Package settings loads the option set of one OPF run.
//
// Sources, lowest precedence first: built-in defaults, a settings file
// (YAML, JSON, TOML or the line form "key [value]"), explicit pairs passed
// to FromMap, and GRIDOPF_<KEY> environment variables. Resolution goes
// through viper; unrecognized keys are rejected as a *ConfigError naming
// the key.
//
// Exclusions checked after resolution:
//   - at most one of doac, dodc, doiv; none selects AC;
//   - branchswitching_mip and branchswitching_comp are exclusive;
//   - voltsfilename needs a positive fixtolerance and conflicts with
//     usevoltsolution.
//
// Settings.BuildConfig and Settings.Tuning translate the result for the
// formulation and solve packages.
package settings
