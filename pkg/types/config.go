package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// Auth Configuration
	CookieName       string `envconfig:"SESSION_COOKIE_NAME" default:"session_id"`
	SessionMaxAgeSec int    `envconfig:"SESSION_MAX_AGE_SEC" default:"604800"` // 7 days

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Scan image storage
	ScanBucketName string `envconfig:"SCAN_BUCKET_NAME" default:"greentrack-scans"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"` // 10 MiB

	// Classification
	ClassifierStrategy  string `envconfig:"CLASSIFIER_STRATEGY" default:"heuristic"` // heuristic | remote
	MLServiceURL        string `envconfig:"ML_SERVICE_URL" default:"http://localhost:8000"`
	MLServiceTimeoutSec uint   `envconfig:"ML_SERVICE_TIMEOUT_SEC" default:"10"`

	// Real-time notifications, empty disables publishing
	RedisURL string `envconfig:"REDIS_URL"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"100"`

	// Estimated weight credited to weight challenges for every scan
	WeightPerScanKg float64 `envconfig:"WEIGHT_PER_SCAN_KG" default:"0.5"`
}
