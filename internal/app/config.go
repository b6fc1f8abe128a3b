package app

import (
	"time"

	"github.com/aivy-app/aivy-backend/internal/platform/logger"
	"github.com/aivy-app/aivy-backend/internal/utils"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	MaxToolRounds      int
	ToolTimeoutSeconds int

	RedisAddr string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	maxToolRounds := utils.GetEnvAsInt("AGENT_MAX_TOOL_ROUNDS", 8, log)
	toolTimeoutSeconds := utils.GetEnvAsInt("AGENT_TOOL_TIMEOUT_SECONDS", 10, log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "", log)
	return Config{
		JWTSecretKey:       jwtSecretKey,
		AccessTokenTTL:     time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL:    time.Duration(refreshTokenTTLSeconds) * time.Second,
		MaxToolRounds:      maxToolRounds,
		ToolTimeoutSeconds: toolTimeoutSeconds,
		RedisAddr:          redisAddr,
	}
}
