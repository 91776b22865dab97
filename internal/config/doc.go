// Package config provides centralized configuration management for FlightOps.
// It layers defaults, an optional YAML file and environment variables into a
// single validated Config.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// The file is taken from FLIGHTOPS_CONFIG, or the first of flightops.yaml,
// config/flightops.yaml, configs/flightops.yaml or flightops.yaml next to the
// executable.
//
// # Environment Variables
//
// All environment variables follow the pattern FLIGHTOPS_<SECTION>_<FIELD>:
//
//	FLIGHTOPS_SERVER_PORT=8080
//	FLIGHTOPS_SOURCE_KIND=sheets
//	FLIGHTOPS_SOURCE_SPREADSHEET_ID=1AbC...
//	FLIGHTOPS_CACHE_TTL=60s
//	FLIGHTOPS_EXPORT_SCHEDULE="0 * * * *"
//
// # Fleet Mapping
//
// The vehicle-name mapping can only be set in YAML:
//
//	fleets:
//	  rules:
//	    - keyword: trishul
//	      fleet: Trishul
//	    - keyword: kamet
//	      fleet: Kamet
//	  fallback: ""   # unmatched vehicles become Unclassified
//
// The mapping is validated at load time together with the rest of the file.
package config
