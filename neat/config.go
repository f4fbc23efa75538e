package neat

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for the agent genomes and the
// NEAT populations that evolve them.
type Config struct {
	Neat         NeatConfig
	Genome       GenomeConfig
	Reproduction ReproductionConfig
	SpeciesSet   SpeciesSetConfig
	Stagnation   StagnationConfig
}

// NeatConfig holds the population-level parameters.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size"`
	FitnessCriterion     string  `ini:"fitness_criterion"` // max, min or mean
	FitnessThreshold     float64 `ini:"fitness_threshold"`
	ResetOnExtinction    bool    `ini:"reset_on_extinction"`
	NoFitnessTermination bool    `ini:"no_fitness_termination"`
}

// GenomeConfig holds parameters for the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputs                        int     `ini:"num_inputs"`
	NumOutputs                       int     `ini:"num_outputs"`
	NumHidden                        int     `ini:"num_hidden"`
	FeedForward                      bool    `ini:"feed_forward"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient"`
	ConnAddProb                      float64 `ini:"conn_add_prob"`
	ConnDeleteProb                   float64 `ini:"conn_delete_prob"`
	NodeAddProb                      float64 `ini:"node_add_prob"`
	NodeDeleteProb                   float64 `ini:"node_delete_prob"`
	SingleStructuralMutation         bool    `ini:"single_structural_mutation"`
	InitialConnection                string  `ini:"initial_connection"` // e.g. "full_direct" or "partial_direct 0.5"

	BiasInitMean    float64 `ini:"bias_init_mean"`
	BiasInitStdev   float64 `ini:"bias_init_stdev"`
	BiasInitType    string  `ini:"bias_init_type"`
	BiasReplaceRate float64 `ini:"bias_replace_rate"`
	BiasMutateRate  float64 `ini:"bias_mutate_rate"`
	BiasMutatePower float64 `ini:"bias_mutate_power"`
	BiasMaxValue    float64 `ini:"bias_max_value"`
	BiasMinValue    float64 `ini:"bias_min_value"`

	ResponseInitMean    float64 `ini:"response_init_mean"`
	ResponseInitStdev   float64 `ini:"response_init_stdev"`
	ResponseInitType    string  `ini:"response_init_type"`
	ResponseReplaceRate float64 `ini:"response_replace_rate"`
	ResponseMutateRate  float64 `ini:"response_mutate_rate"`
	ResponseMutatePower float64 `ini:"response_mutate_power"`
	ResponseMaxValue    float64 `ini:"response_max_value"`
	ResponseMinValue    float64 `ini:"response_min_value"`

	ActivationDefault    string   `ini:"activation_default"`
	ActivationOptions    []string `ini:"activation_options" delim:" "`
	ActivationMutateRate float64  `ini:"activation_mutate_rate"`

	AggregationDefault    string   `ini:"aggregation_default"`
	AggregationOptions    []string `ini:"aggregation_options" delim:" "`
	AggregationMutateRate float64  `ini:"aggregation_mutate_rate"`

	WeightInitMean    float64 `ini:"weight_init_mean"`
	WeightInitStdev   float64 `ini:"weight_init_stdev"`
	WeightInitType    string  `ini:"weight_init_type"`
	WeightReplaceRate float64 `ini:"weight_replace_rate"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate"`
	WeightMutatePower float64 `ini:"weight_mutate_power"`
	WeightMaxValue    float64 `ini:"weight_max_value"`
	WeightMinValue    float64 `ini:"weight_min_value"`

	EnabledDefault        string  `ini:"enabled_default"`
	EnabledMutateRate     float64 `ini:"enabled_mutate_rate"`
	EnabledRateToTrueAdd  float64 `ini:"enabled_rate_to_true_add"`
	EnabledRateToFalseAdd float64 `ini:"enabled_rate_to_false_add"`

	// Derived after loading.
	InputKeys          []int
	OutputKeys         []int
	NodeKeyIndex       int
	ConnectionType     string  // initial_connection without the fraction
	ConnectionFraction float64 // 1 unless a partial fraction is given
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold"`
	MinSpeciesSize    int     `ini:"min_species_size"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func"`
	MaxStagnation      int    `ini:"max_stagnation"`
	SpeciesElitism     int    `ini:"species_elitism"`
}

// LoadOptions are the INI options shared by every loader in this module:
// inline comments are ignored and comment symbols inside values are kept.
var LoadOptions = ini.LoadOptions{
	IgnoreInlineComment:         true,
	UnescapeValueCommentSymbols: true,
}

// LoadConfig loads the NEAT sections of an INI file.
func LoadConfig(filePath string) (*Config, error) {
	file, err := ini.LoadSources(LoadOptions, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return ConfigFromFile(file)
}

// ConfigFromFile maps the [NEAT], [DefaultGenome], [DefaultReproduction],
// [DefaultSpeciesSet] and [DefaultStagnation] sections of an already parsed
// file, fills in defaults, derives node keys and validates the result.
func ConfigFromFile(file *ini.File) (*Config, error) {
	config := &Config{}
	sections := []struct {
		name   string
		target interface{}
	}{
		{"NEAT", &config.Neat},
		{"DefaultGenome", &config.Genome},
		{"DefaultReproduction", &config.Reproduction},
		{"DefaultSpeciesSet", &config.SpeciesSet},
		{"DefaultStagnation", &config.Stagnation},
	}
	for _, s := range sections {
		if err := file.Section(s.name).MapTo(s.target); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	config.clean()
	config.applyDefaults()
	if err := config.Genome.parseInitialConnection(); err != nil {
		return nil, err
	}
	config.Genome.deriveKeys()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// clean strips stray comment fragments and whitespace from string options.
func (c *Config) clean() {
	for _, s := range []*string{
		&c.Genome.BiasInitType,
		&c.Genome.ResponseInitType,
		&c.Genome.ActivationDefault,
		&c.Genome.AggregationDefault,
		&c.Genome.WeightInitType,
		&c.Genome.EnabledDefault,
		&c.Genome.InitialConnection,
		&c.Neat.FitnessCriterion,
		&c.Stagnation.SpeciesFitnessFunc,
	} {
		*s = cleanIniString(*s)
	}
	for i, opt := range c.Genome.ActivationOptions {
		c.Genome.ActivationOptions[i] = strings.TrimSpace(opt)
	}
	for i, opt := range c.Genome.AggregationOptions {
		c.Genome.AggregationOptions[i] = strings.TrimSpace(opt)
	}
}

func (c *Config) applyDefaults() {
	defaultString := func(s *string, v string) {
		if *s == "" {
			*s = v
		}
	}
	defaultString(&c.Genome.BiasInitType, "gaussian")
	defaultString(&c.Genome.ResponseInitType, "gaussian")
	defaultString(&c.Genome.ActivationDefault, "random")
	defaultString(&c.Genome.AggregationDefault, "random")
	defaultString(&c.Genome.WeightInitType, "gaussian")
	defaultString(&c.Genome.EnabledDefault, "True")
	defaultString(&c.Genome.InitialConnection, "unconnected")
	defaultString(&c.Neat.FitnessCriterion, "max")
	defaultString(&c.Stagnation.SpeciesFitnessFunc, "mean")

	if c.Reproduction.MinSpeciesSize == 0 {
		c.Reproduction.MinSpeciesSize = 1
	}
	if c.Reproduction.SurvivalThreshold == 0 {
		c.Reproduction.SurvivalThreshold = 0.2
	}
	if c.Stagnation.MaxStagnation == 0 {
		c.Stagnation.MaxStagnation = 15
	}
}

// parseInitialConnection splits "partial_direct 0.5" into its type and fraction.
func (gc *GenomeConfig) parseInitialConnection() error {
	parts := strings.Fields(gc.InitialConnection)
	gc.ConnectionType = parts[0]
	gc.ConnectionFraction = 1.0
	if len(parts) == 1 {
		return nil
	}
	if !strings.HasPrefix(gc.ConnectionType, "partial") {
		return fmt.Errorf("config error: initial_connection '%s' does not take a fraction", gc.InitialConnection)
	}
	f, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return fmt.Errorf("config error: invalid connection fraction in '%s': %w", gc.InitialConnection, err)
	}
	if f < 0 || f > 1 {
		return fmt.Errorf("config error: connection fraction must be between 0 and 1, got %g", f)
	}
	gc.ConnectionFraction = f
	return nil
}

// deriveKeys numbers inputs -1..-n and outputs 0..m-1. Hidden nodes are
// allocated from NodeKeyIndex upwards.
func (gc *GenomeConfig) deriveKeys() {
	gc.InputKeys = make([]int, gc.NumInputs)
	for i := range gc.InputKeys {
		gc.InputKeys[i] = -(i + 1)
	}
	gc.OutputKeys = make([]int, gc.NumOutputs)
	for i := range gc.OutputKeys {
		gc.OutputKeys[i] = i
	}
	gc.NodeKeyIndex = gc.NumOutputs
}

// Validate checks value ranges and option names.
func (c *Config) Validate() error {
	g := &c.Genome
	if len(g.ActivationOptions) == 0 {
		return fmt.Errorf("config error: activation_options must be specified")
	}
	for _, name := range g.ActivationOptions {
		if _, err := GetActivation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if len(g.AggregationOptions) == 0 {
		return fmt.Errorf("config error: aggregation_options must be specified")
	}
	for _, name := range g.AggregationOptions {
		if _, err := GetAggregation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if g.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if g.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if g.NumHidden < 0 {
		return fmt.Errorf("config error: num_hidden cannot be negative")
	}
	if g.CompatibilityDisjointCoefficient < 0 || g.CompatibilityWeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility coefficients cannot be negative")
	}

	probs := map[string]float64{
		"conn_add_prob":      g.ConnAddProb,
		"conn_delete_prob":   g.ConnDeleteProb,
		"node_add_prob":      g.NodeAddProb,
		"node_delete_prob":   g.NodeDeleteProb,
		"survival_threshold": c.Reproduction.SurvivalThreshold,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", name)
		}
	}

	if g.BiasMaxValue < g.BiasMinValue {
		return fmt.Errorf("config error: bias_max_value cannot be less than bias_min_value")
	}
	if g.ResponseMaxValue < g.ResponseMinValue {
		return fmt.Errorf("config error: response_max_value cannot be less than response_min_value")
	}
	if g.WeightMaxValue < g.WeightMinValue {
		return fmt.Errorf("config error: weight_max_value cannot be less than weight_min_value")
	}
	if c.Reproduction.MinSpeciesSize <= 0 {
		return fmt.Errorf("config error: min_species_size must be positive")
	}
	if c.SpeciesSet.CompatibilityThreshold < 0 {
		return fmt.Errorf("config error: compatibility_threshold cannot be negative")
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}

	switch strings.ToLower(c.Neat.FitnessCriterion) {
	case "max", "min", "mean":
	default:
		return fmt.Errorf("config error: invalid fitness_criterion '%s', must be one of 'max', 'min', 'mean'", c.Neat.FitnessCriterion)
	}

	switch g.ConnectionType {
	case "unconnected", "fs_neat_nohidden", "fs_neat", "fs_neat_hidden",
		"full_nodirect", "full", "full_direct",
		"partial_nodirect", "partial", "partial_direct":
	default:
		return fmt.Errorf("config error: invalid initial_connection type '%s'", g.ConnectionType)
	}

	if _, ok := StatFunctions[strings.ToLower(c.Stagnation.SpeciesFitnessFunc)]; !ok {
		return fmt.Errorf("config error: invalid species_fitness_func '%s'", c.Stagnation.SpeciesFitnessFunc)
	}
	return nil
}

// Clone returns a deep copy whose node key indexer is independent of c.
// Concurrent populations must each own a clone.
func (c *Config) Clone() *Config {
	dup := *c
	g := &dup.Genome
	g.ActivationOptions = append([]string(nil), c.Genome.ActivationOptions...)
	g.AggregationOptions = append([]string(nil), c.Genome.AggregationOptions...)
	g.InputKeys = append([]int(nil), c.Genome.InputKeys...)
	g.OutputKeys = append([]int(nil), c.Genome.OutputKeys...)
	return &dup
}

// GetNewNodeKey hands out the next hidden node key.
func (gc *GenomeConfig) GetNewNodeKey() int {
	key := gc.NodeKeyIndex
	gc.NodeKeyIndex++
	return key
}

// EnsureNodeKeyAbove raises the indexer so the next key is greater than key.
func (gc *GenomeConfig) EnsureNodeKeyAbove(key int) {
	if gc.NodeKeyIndex <= key {
		gc.NodeKeyIndex = key + 1
	}
}

// cleanIniString removes inline comments and trims whitespace.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
