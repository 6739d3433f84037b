// Package config is the typed settings store of the partitioner. Settings
// come from command-line flags, PARTC_* environment variables and an optional
// YAML settings file, resolved through viper in that order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/actorflow/partc/milp"
	"github.com/actorflow/partc/partition"
)

// EnvPrefix prefixes every environment variable: num-cores is PARTC_NUM_CORES.
const EnvPrefix = "PARTC"

// Setting keys. They double as flag names and settings-file keys.
const (
	KeySettings          = "settings"
	KeyNetwork           = "network"
	KeyStrategy          = "strategy"
	KeyProfilePath       = "profile-path"
	KeyNumCores          = "num-cores"
	KeyCPUCoreCount      = "cpu-core-count" // alias of num-cores
	KeyConfigPath        = "config-path"
	KeyDefaultPartition  = "default-partition"
	KeyPartitionKinds    = "partition-kinds"
	KeyPolicyFile        = "policy-file"
	KeyStrict            = "strict"
	KeyBoundaryLinks     = "boundary-links"
	KeyDefaultBufferSize = "default-buffer-size"
	KeySolverTimeLimit   = "solver-time-limit"
	KeySolverNodeLimit   = "solver-node-limit"
	KeySolverFallback    = "solver-fallback"
	KeyOutputDir         = "output-dir"
)

// Solver fallback strategies.
const (
	FallbackNone      = "none"
	FallbackAttribute = "attribute"
)

var validFallbacks = map[string]bool{FallbackNone: true, FallbackAttribute: true}

// Settings is the resolved configuration of one partitioning run.
type Settings struct {
	Network           string
	Strategy          partition.Strategy
	ProfilePath       string
	NumCores          int
	ConfigPath        string
	DefaultPartition  string
	PartitionKinds    []string
	PolicyFile        string
	Strict            bool
	BoundaryLinks     bool
	DefaultBufferSize int
	SolverTimeLimit   time.Duration
	SolverNodeLimit   int
	SolverFallback    string
	OutputDir         string
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Strategy:          partition.StrategyAttribute,
		NumCores:          1,
		DefaultPartition:  "sw",
		Strict:            true,
		DefaultBufferSize: 4096,
		SolverFallback:    FallbackNone,
	}
}

// NewViper returns a viper instance reading PARTC_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// This normalizes "-" to an underscore in env names.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	return v
}

// BindFlags registers every setting as a flag of cmd and binds it to v.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	d := Defaults()
	f := cmd.Flags()
	f.String(KeySettings, "", "YAML settings file")
	f.String(KeyNetwork, "", "Network description (.yaml, .yml or .hcl)")
	f.String(KeyStrategy, string(d.Strategy), "Partitioning strategy (attribute, profile)")
	f.String(KeyProfilePath, "", "Execution profile (.xml, .yaml); required by the profile strategy")
	f.Int(KeyNumCores, d.NumCores, "Number of numbered partitions for the profile strategy")
	f.Int(KeyCPUCoreCount, d.NumCores, "Alias of --num-cores")
	f.String(KeyConfigPath, "", "Write a partition descriptor to this path")
	f.String(KeyDefaultPartition, d.DefaultPartition, "Kind of instances without a partition attribute (hw, sw)")
	f.StringSlice(KeyPartitionKinds, nil, "Kind of each numbered partition, in order (hw, sw); unlisted partitions are sw")
	f.String(KeyPolicyFile, "", "YAML partition policy overriding the partition settings")
	f.Bool(KeyStrict, d.Strict, "Abort on invalid partition attributes and duplicate profile entries")
	f.Bool(KeyBoundaryLinks, d.BoundaryLinks, "Synthesize Tx/Rx proxies for connections crossing partitions")
	f.Int(KeyDefaultBufferSize, d.DefaultBufferSize, "FIFO depth of connections without a buffer size attribute")
	f.Duration(KeySolverTimeLimit, 0, "Solver time limit (0 = unlimited)")
	f.Int(KeySolverNodeLimit, 0, "Solver branch-and-bound node limit (0 = unlimited)")
	f.String(KeySolverFallback, d.SolverFallback, "Strategy used when the solver fails (none, attribute)")
	f.String(KeyOutputDir, "", "Write each extracted partition network under this directory")

	for _, key := range []string{
		KeySettings, KeyNetwork, KeyStrategy, KeyProfilePath, KeyNumCores, KeyCPUCoreCount,
		KeyConfigPath, KeyDefaultPartition, KeyPartitionKinds, KeyPolicyFile, KeyStrict,
		KeyBoundaryLinks, KeyDefaultBufferSize, KeySolverTimeLimit, KeySolverNodeLimit,
		KeySolverFallback, KeyOutputDir,
	} {
		mustBindPFlag(v, key, cmd)
	}
}

func mustBindPFlag(v *viper.Viper, key string, cmd *cobra.Command) {
	if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
		panic(err)
	}
}

// Load resolves the settings held by v, reading the settings file first
// when one is configured. It does not validate.
func Load(v *viper.Viper) (*Settings, error) {
	if path := v.GetString(KeySettings); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigurationError{Setting: KeySettings, Reason: fmt.Sprintf("reading %s: %v", path, err)}
		}
	}
	setDefaults(v)
	s := &Settings{
		Network:           v.GetString(KeyNetwork),
		Strategy:          partition.Strategy(v.GetString(KeyStrategy)),
		ProfilePath:       v.GetString(KeyProfilePath),
		NumCores:          v.GetInt(KeyNumCores),
		ConfigPath:        v.GetString(KeyConfigPath),
		DefaultPartition:  v.GetString(KeyDefaultPartition),
		PartitionKinds:    v.GetStringSlice(KeyPartitionKinds),
		PolicyFile:        v.GetString(KeyPolicyFile),
		Strict:            v.GetBool(KeyStrict),
		BoundaryLinks:     v.GetBool(KeyBoundaryLinks),
		DefaultBufferSize: v.GetInt(KeyDefaultBufferSize),
		SolverTimeLimit:   v.GetDuration(KeySolverTimeLimit),
		SolverNodeLimit:   v.GetInt(KeySolverNodeLimit),
		SolverFallback:    v.GetString(KeySolverFallback),
		OutputDir:         v.GetString(KeyOutputDir),
	}
	// num-cores wins unless it is left at its default.
	if cpus := v.GetInt(KeyCPUCoreCount); s.NumCores == Defaults().NumCores && cpus != s.NumCores {
		s.NumCores = cpus
	}
	return s, nil
}

// setDefaults makes a viper without bound flags resolve to Defaults.
func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault(KeyStrategy, string(d.Strategy))
	v.SetDefault(KeyNumCores, d.NumCores)
	v.SetDefault(KeyCPUCoreCount, d.NumCores)
	v.SetDefault(KeyDefaultPartition, d.DefaultPartition)
	v.SetDefault(KeyStrict, d.Strict)
	v.SetDefault(KeyDefaultBufferSize, d.DefaultBufferSize)
	v.SetDefault(KeySolverFallback, d.SolverFallback)
}

// Validate checks every setting and returns all problems at once, each as a
// *ConfigurationError.
func (s *Settings) Validate() error {
	var errs *multierror.Error
	fail := func(key, format string, args ...any) {
		errs = multierror.Append(errs, &ConfigurationError{Setting: key, Reason: fmt.Sprintf(format, args...)})
	}
	if s.Network == "" {
		fail(KeyNetwork, "required")
	}
	if !partition.ValidStrategies[s.Strategy] {
		fail(KeyStrategy, "unknown strategy %q", s.Strategy)
	}
	if s.Strategy == partition.StrategyProfile && s.ProfilePath == "" {
		fail(KeyProfilePath, "required by the %s strategy", s.Strategy)
	}
	if s.NumCores < 1 {
		fail(KeyNumCores, "must be positive, got %d", s.NumCores)
	}
	if _, err := partition.ParseKind(s.DefaultPartition); err != nil {
		fail(KeyDefaultPartition, "%v", err)
	}
	for i, k := range s.PartitionKinds {
		if _, err := partition.ParseKind(k); err != nil {
			fail(KeyPartitionKinds, "entry %d: %v", i, err)
		}
	}
	if s.DefaultBufferSize < 1 {
		fail(KeyDefaultBufferSize, "must be positive, got %d", s.DefaultBufferSize)
	}
	if s.SolverTimeLimit < 0 {
		fail(KeySolverTimeLimit, "must be non-negative, got %s", s.SolverTimeLimit)
	}
	if s.SolverNodeLimit < 0 {
		fail(KeySolverNodeLimit, "must be non-negative, got %d", s.SolverNodeLimit)
	}
	if !validFallbacks[s.SolverFallback] {
		fail(KeySolverFallback, "unknown fallback %q", s.SolverFallback)
	}
	return errs.ErrorOrNil()
}

// Policy builds the partition policy from the settings, then applies the
// policy file when one is configured.
func (s *Settings) Policy() (partition.Policy, error) {
	p := partition.Policy{Strict: s.Strict}
	var err error
	if p.DefaultKind, err = partition.ParseKind(s.DefaultPartition); err != nil {
		return p, &ConfigurationError{Setting: KeyDefaultPartition, Reason: err.Error()}
	}
	for i, name := range s.PartitionKinds {
		k, err := partition.ParseKind(name)
		if err != nil {
			return p, &ConfigurationError{Setting: KeyPartitionKinds, Reason: fmt.Sprintf("entry %d: %v", i, err)}
		}
		p.IndexKinds = append(p.IndexKinds, k)
	}
	if s.PolicyFile == "" {
		return p, nil
	}
	f, err := partition.LoadPolicy(s.PolicyFile)
	if err != nil {
		return p, &ConfigurationError{Setting: KeyPolicyFile, Reason: err.Error()}
	}
	if p, err = f.Apply(p); err != nil {
		return p, &ConfigurationError{Setting: KeyPolicyFile, Reason: err.Error()}
	}
	return p, nil
}

// Limits returns the solver budget.
func (s *Settings) Limits() milp.Limits {
	return milp.Limits{TimeLimit: s.SolverTimeLimit, NodeLimit: s.SolverNodeLimit}
}
