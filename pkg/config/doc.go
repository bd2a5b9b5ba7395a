// Package config loads taskq configuration from the environment and from queue
// definition files.
//
// Environment loading wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
//
//   - LoadEnv loads one or more .env files (the default ./.env when called without
//     arguments). Load also tries ./.env once on first use.
//   - Load parses the environment into any struct with env tags and caches the result
//     per type, so each configuration type is parsed once per process.
//   - MustLoad and MustLoadEnv panic on failure for configuration the binary cannot
//     start without.
//   - ResetCache and ForceReloadConfig drop cached values; handy in tests.
//
// Definition files are decoded with LoadFile, which picks gopkg.in/yaml.v3,
// github.com/BurntSushi/toml or encoding/json by extension and rejects unknown keys:
//
//	var cfg queue.Config
//	config.MustLoad(&cfg)
//
//	var defs queue.Definitions
//	if err := config.LoadFile(cfg.DefinitionsFile, &defs); err != nil {
//	    return err
//	}
//	registry, err := queue.NewRegistryFromDefinitions(defs)
//
// # Error Handling
//
// Sentinel errors can be compared with errors.Is: ErrParsingConfig, ErrNilPointer,
// ErrConfigNotLoaded, ErrLoadingEnvFile, ErrReadingFile, ErrDecodingFile and
// ErrUnsupportedFormat.
package config
