package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/cordialsys/tokenrelay/config/constants"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var noSuchFile = "no such file"
var notFoundIn = "not found in"

func getViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType("yaml")

	// If the config location env is set, use that.
	if path := os.Getenv(constants.ConfigEnv); path != "" {
		v.SetConfigFile(path)
	}

	// otherwise, prioritize current path or parent
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath(constants.DefaultHome)

	return v
}

func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, noSuchFile) || strings.Contains(msg, notFoundIn)
}

// RequireConfig loads section of the config file into unmarshalDst.
//
// Values from defaults are used for anything the file does not set, and when
// defaults is given a missing config file is not an error. An empty section
// loads the whole file.
func RequireConfig(section string, unmarshalDst interface{}, defaults interface{}) error {
	v := getViper()
	if defaults != nil {
		bz, err := yaml.Marshal(defaults)
		if err != nil {
			return err
		}
		if section != "" {
			var inner map[string]interface{}
			if err := yaml.Unmarshal(bz, &inner); err != nil {
				return err
			}
			bz, err = yaml.Marshal(map[string]interface{}{section: inner})
			if err != nil {
				return err
			}
		}
		if err := v.MergeConfig(bytes.NewReader(bz)); err != nil {
			return err
		}
	}

	if err := v.MergeInConfig(); err != nil {
		if defaults == nil || !isNotFound(err) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
	}

	// viper lowercases keys and does not support partial deserialization, so
	// re-serialize and parse with the yaml tags of the destination
	settings := v.AllSettings()
	if section != "" {
		settings = v.GetStringMap(section)
	}
	bz, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(bz, unmarshalDst)
}
