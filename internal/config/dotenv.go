package config

import "github.com/joho/godotenv"

// loadDotEnvFile copies keys from a .env file into the environment.
// Variables that are already set win; empty values are skipped.
func loadDotEnvFile(path string, setenv func(string, string) error, getenv func(string) string) error {
	vals, err := godotenv.Read(path)
	if err != nil {
		return err
	}
	for k, v := range vals {
		if v == "" || getenv(k) != "" {
			continue
		}
		if err := setenv(k, v); err != nil {
			return err
		}
	}
	return nil
}
