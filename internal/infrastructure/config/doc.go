// Package config handles loading and validating powerbridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading a .env file into the environment (godotenv)
//   - Overriding with POWERBRIDGE_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// The defaults reproduce a stock deployment: broker on localhost:1883,
// subscription "resources/power/#", InfluxDB 1.x on localhost:8086 with
// root/root credentials and database "resources".
//
// Security Considerations:
//   - Credentials should be set via environment variables or the .env file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Topic)
package config
