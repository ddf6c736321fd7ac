package config

import "os"

func IsDebug() bool {
	return os.Getenv("ELVA_DEBUG") == "1"
}
