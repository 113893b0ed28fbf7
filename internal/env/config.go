package env

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Region    string `env:"RESPD_REGION,default=local"`
	DebugHTTP bool   `env:"RESPD_DEBUG_HTTP"`
	LogLevel  string `env:"RESPD_LOG_LEVEL,default=info"`

	// Reply is sent as a simple string for every frame a client sends
	Reply string `env:"RESPD_REPLY,default=PONG"`

	// MaxFrameSize bounds how many undecoded bytes a connection may buffer
	// while waiting for the rest of a frame
	MaxFrameSize int `env:"RESPD_MAX_FRAME_SIZE,default=524288"`

	HTTPPort string `env:"RESPD_HTTP_PORT,default=6380"`
}

// LoadConfig reads .env.local (if there is one) into the environment and then
// builds a Config from it.
func LoadConfig(ctx context.Context) (*Config, error) {
	config := Config{}

	if err := godotenv.Load(".env.local"); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
