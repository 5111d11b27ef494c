package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`

	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=15s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	LimitMessages *int `env:"LIMIT_MESSAGES"`

	// Comma-separated phrases redacted from message content, on top of the
	// built-in email and phone number screening.
	BlockedPhrases  string `env:"BLOCKED_PHRASES"`
	RedactCharacter string `env:"REDACT_CHARACTER,default=*"`
}

func (c Config) BlockedPhraseList() []string {
	if strings.TrimSpace(c.BlockedPhrases) == "" {
		return nil
	}
	var phrases []string
	for _, phrase := range strings.Split(c.BlockedPhrases, ",") {
		if trimmed := strings.TrimSpace(phrase); trimmed != "" {
			phrases = append(phrases, trimmed)
		}
	}
	return phrases
}

func RedactRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"REDACT_CHARACTER must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
