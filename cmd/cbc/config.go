package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/TrevorS/cbc"
)

// fileConfig is the YAML form of cbc.Config. Absent fields keep the library
// defaults.
//
// Example:
//
//	threshold1: 0.5
//	threshold2: 0.35
//	threshold3: 0.25
//	hard_assignment: false
//	top_features: 100
//	neighbors: 20
//	linkage: mean
//	max_rounds: 64
//	workers: 0
//	log_level: info
//	soft:
//	  max_committees: 200
//	  min_similarity: 0.01
//	  overlap: 0.10
//	  reduction: none
type fileConfig struct {
	Threshold1     *float64   `yaml:"threshold1"`
	Threshold2     *float64   `yaml:"threshold2"`
	Threshold3     *float64   `yaml:"threshold3"`
	HardAssignment *bool      `yaml:"hard_assignment"`
	TopFeatures    *int       `yaml:"top_features"`
	Neighbors      *int       `yaml:"neighbors"`
	Linkage        string     `yaml:"linkage"`
	MaxRounds      *int       `yaml:"max_rounds"`
	Workers        *int       `yaml:"workers"`
	LogLevel       string     `yaml:"log_level"`
	Soft           softConfig `yaml:"soft"`
}

type softConfig struct {
	MaxCommittees *int     `yaml:"max_committees"`
	MinSimilarity *float64 `yaml:"min_similarity"`
	Overlap       *float64 `yaml:"overlap"`
	Reduction     string   `yaml:"reduction"`
}

// loadFileConfig reads path as YAML. An empty path yields an empty config.
func loadFileConfig(path string) (*fileConfig, error) {
	fc := &fileConfig{}
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := parseFileConfig(data, fc); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return fc, nil
}

func parseFileConfig(data []byte, fc *fileConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyFlags overrides file values with the flags the user actually set.
func (fc *fileConfig) applyFlags(flags *pflag.FlagSet) error {
	if flags.Changed("hard") {
		hard, err := flags.GetBool("hard")
		if err != nil {
			return err
		}
		fc.HardAssignment = &hard
	}
	if flags.Changed("workers") {
		workers, err := flags.GetInt("workers")
		if err != nil {
			return err
		}
		fc.Workers = &workers
	}
	if flags.Changed("linkage") {
		fc.Linkage, _ = flags.GetString("linkage")
	}
	if flags.Changed("reduction") {
		fc.Soft.Reduction, _ = flags.GetString("reduction")
	}
	if flags.Changed("log-level") {
		fc.LogLevel, _ = flags.GetString("log-level")
	}
	return nil
}

// toConfig layers the file values over cbc.DefaultConfig. Range checks are
// left to the library.
func (fc *fileConfig) toConfig() (cbc.Config, error) {
	cfg := cbc.DefaultConfig()
	setFloat(&cfg.Threshold1, fc.Threshold1)
	setFloat(&cfg.Threshold2, fc.Threshold2)
	setFloat(&cfg.Threshold3, fc.Threshold3)
	setInt(&cfg.TopFeatures, fc.TopFeatures)
	setInt(&cfg.Neighbors, fc.Neighbors)
	setInt(&cfg.MaxRounds, fc.MaxRounds)
	setInt(&cfg.Workers, fc.Workers)
	setInt(&cfg.SoftMaxCommittees, fc.Soft.MaxCommittees)
	setFloat(&cfg.SoftMinSimilarity, fc.Soft.MinSimilarity)
	setFloat(&cfg.SoftOverlap, fc.Soft.Overlap)
	if fc.HardAssignment != nil {
		cfg.HardAssignment = *fc.HardAssignment
	}
	if fc.Linkage != "" {
		l, err := cbc.ParseLinkage(fc.Linkage)
		if err != nil {
			return cbc.Config{}, err
		}
		cfg.Linkage = l
	}
	r, err := cbc.ParseReduction(fc.Soft.Reduction)
	if err != nil {
		return cbc.Config{}, err
	}
	cfg.SoftReduction = r
	return cfg, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// newLogger returns a text logger on w at the named level (default info).
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var l slog.Level
	if level != "" {
		if err := l.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}
