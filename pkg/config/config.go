package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var configType = "yaml"

// InitEnv makes every environment variable visible through viper.
func InitEnv() {
	viper.AutomaticEnv()
}

// Init reads a yaml config into viper and unmarshals it into the given struct.
// ${ENV_VAR} placeholders in values are resolved before unmarshalling.
func Init(yamlConf interface{}, yamlConfigReader io.Reader) {
	viper.SetConfigType(configType)

	if err := viper.ReadConfig(yamlConfigReader); err != nil {
		panic(fmt.Errorf("failed to read the configuration file: %w", err))
	}

	replaceEnvVarPlaceholders(viper.GetViper())

	viper.AutomaticEnv()

	if err := viper.Unmarshal(yamlConf); err != nil {
		panic(fmt.Errorf("failed to unmarshal configuration: %w", err))
	}
	log.Info().Msg("Viper initialized!")
}

func replaceEnvVarPlaceholders(v *viper.Viper) {
	re := regexp.MustCompile(`\${([^}]+)}`)
	missedEnvVars := make([]string, 0)
	for _, key := range v.AllKeys() {
		value := v.GetString(key)
		matches := re.FindAllStringSubmatch(value, -1)
		for _, match := range matches {
			envVarName := match[1]
			envVarValue := os.Getenv(envVarName)
			if len(envVarValue) == 0 {
				missedEnvVars = append(missedEnvVars, envVarName)
			}
			value = strings.ReplaceAll(value, match[0], envVarValue)
		}
		v.Set(key, value)
	}
	if len(missedEnvVars) != 0 {
		panic("Missing environment variables: " + strings.Join(missedEnvVars, ","))
	}
}
