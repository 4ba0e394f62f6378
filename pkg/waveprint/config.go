package waveprint

import (
	"github.com/waveprint/waveprint/pkg/models"
	"github.com/waveprint/waveprint/pkg/waveprint/matcher"
)

type Config struct {
	DBPath        string
	Algorithm     models.Algorithm
	SimHashRadius int // Max signature Hamming distance for dedup candidates
	MinConfidence int // Matches below this percentage are dropped
	Logger        Logger
	Storage       Storage
	Matcher       *matcher.Matcher
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithAlgorithm(alg models.Algorithm) Option {
	return func(c *Config) {
		c.Algorithm = alg
	}
}

func WithSimHashRadius(radius int) Option {
	return func(c *Config) {
		c.SimHashRadius = radius
	}
}

func WithMinConfidence(confidence int) Option {
	return func(c *Config) {
		c.MinConfidence = confidence
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithMatcher(m *matcher.Matcher) Option {
	return func(c *Config) {
		c.Matcher = m
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:        "waveprint.sqlite3",
		Algorithm:     models.AlgorithmDefault,
		SimHashRadius: 12,
		MinConfidence: 60,
		Logger:        nil,
	}
}
