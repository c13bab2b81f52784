// Package config provides configuration management for Switchboard.
//
// This package loads YAML configuration, applies defaults, applies
// environment variable overrides and validates the result.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("switchboard.yaml")
//
//  2. From a YAML file with .env and environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("switchboard.yaml")
//
// YAML is decoded over Default(), so keys missing from the file keep their
// defaults and an explicit "enabled: false" is honored.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SWITCHBOARD_SECTION_FIELD:
//
//   - SWITCHBOARD_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - SWITCHBOARD_ROUTING_STRATEGY overrides routing.strategy
//   - SWITCHBOARD_BACKENDS_<ID>_API_KEY overrides the api_key of backend <ID>
//
// Backend IDs are upper-cased with non-alphanumerics replaced by '_', so
// backend "openai-primary" reads SWITCHBOARD_BACKENDS_OPENAI_PRIMARY_API_KEY.
// A .env file next to the configuration file, or in the working directory,
// is loaded first; variables already set in the environment win.
//
// # Validation
//
// Validate collects every problem into a ValidationError:
//
//	if err := config.Validate(cfg); err != nil {
//	    var verr config.ValidationError
//	    if errors.As(err, &verr) {
//	        for _, fe := range verr.Errors {
//	            fmt.Println(fe.Field, fe.Message)
//	        }
//	    }
//	}
//
// # Hot Reload
//
// Watcher watches the configuration file with fsnotify and hands each valid
// new configuration to a callback, typically proxy.Service.ApplyConfig.
package config
