package config

import "time"

var (
	DefaultRetryDelay      = 5 * time.Second
	DefaultSearchTimeout   = 30 * time.Second
	DefaultDownloadTimeout = 1 * time.Hour
	DefaultRetries         = 20
)
