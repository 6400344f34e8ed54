package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort        string        `envconfig:"HTTP_PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	SessionIdleTTL  time.Duration `envconfig:"SESSION_IDLE_TTL" default:"2h"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"true"`

	DBHost         string `envconfig:"DB_HOST" default:"localhost"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName         string `envconfig:"DB_NAME" default:"storefront"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"./internal/repository/migrations"`

	MongoURI    string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName string `envconfig:"MONGO_DB_NAME" default:"storefront"`

	MaxSessions int `envconfig:"MAX_SESSIONS" default:"10000"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	CartCacheTTL  time.Duration `envconfig:"CART_CACHE_TTL" default:"15m"`

	// InventoryBackend is "postgres" or "memory". The memory stock starts from
	// INVENTORY_VARIANT_STOCK and INVENTORY_COMBO_STOCK, given as "id:stock,...".
	InventoryBackend string        `envconfig:"INVENTORY_BACKEND" default:"postgres"`
	VariantStock     map[int64]int `envconfig:"INVENTORY_VARIANT_STOCK"`
	ComboStock       map[int64]int `envconfig:"INVENTORY_COMBO_STOCK"`

	KafkaBrokers     []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	OrdersTopic      string        `envconfig:"ORDERS_TOPIC" default:"storefront-orders"`
	OutboxTick       time.Duration `envconfig:"OUTBOX_TICK" default:"2s"`
	OutboxMaxAttempt int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"10"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// DeliveryCost is added to orders with delivery method "delivery".
	DeliveryCost int64  `envconfig:"DELIVERY_COST" default:"500"`
	Currency     string `envconfig:"CURRENCY" default:"₽"`

	ShopPhone        string        `envconfig:"SHOP_PHONE" default:"79990000000"`
	MessengerBaseURL string        `envconfig:"MESSENGER_BASE_URL" default:"https://wa.me"`
	MessengerProbe   string        `envconfig:"MESSENGER_PROBE_URL" default:""`
	HandoffTimeout   time.Duration `envconfig:"HANDOFF_TIMEOUT" default:"3s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	return &cfg, nil
}
