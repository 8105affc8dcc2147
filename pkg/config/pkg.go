package config

import (
	"time"

	"github.com/apex/log"
)

var configer Configer = &DotenvConfig{}

func SetConfig(c Configer) {
	configer = c
}

func GetConfig() Configer {
	return configer
}

// MustLoadFromDotenv loads the dotenv file named by BRIDGED_DOTENV, falling
// back to .env in the current directory. A missing dotenv file is not fatal
// because all keys can also come from the environment.
func MustLoadFromDotenv() Configer {
	c := NewDotenvConfig(GetKeyWithDefault("BRIDGED_DOTENV", ".env"))
	if err := c.Load(); err != nil {
		log.Infof("No dotenv file found (%s), using environment only", c.DotenvPath)
	}

	SetConfig(c)

	return c
}

func LoadFromPath(path string) error {
	return configer.LoadFromPath(path)
}

func Load() error {
	return configer.Load()
}

func GetKey(key string) string {
	return configer.GetKey(key)
}

func MustGetKey(key string) string {
	return configer.MustGetKey(key)
}

func GetKeyWithDefault(key, defaultValue string) string {
	return configer.GetKeyWithDefault(key, defaultValue)
}

func GetIntKey(key string) int {
	return configer.GetIntKey(key)
}

func MustGetIntKey(key string) int {
	return configer.MustGetIntKey(key)
}

func GetIntKeyWithDefault(key string, defaultValue int) int {
	return configer.GetIntKeyWithDefault(key, defaultValue)
}

func GetDurationKeyWithDefault(key string, defaultValue time.Duration) time.Duration {
	return configer.GetDurationKeyWithDefault(key, defaultValue)
}
