package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/itsManeka/gibipromo-sub001/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Db      *PGDBCfg
	Redis   *RedisCfg
	Kafka   *KafkaCfg
	Minio   *MinIOCfg
	Catalog *CatalogCfg
	Monitor *MonitorCfg
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ProductTTL  time.Duration
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
	WriteTimeout      time.Duration
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Бакет для зеркалируемых изображений товаров
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	DownloadTimeout   time.Duration // Таймаут скачивания изображения с CDN маркетплейса
}

// CatalogCfg — настройки клиента каталога (Amazon Product Advertising API).
type CatalogCfg struct {
	BaseURL    string
	PartnerTag string
	AccessKey  string
	SecretKey  string
	Timeout    time.Duration
}

// MonitorCfg — настройки пайплайна мониторинга цен.
type MonitorCfg struct {
	AddPollInterval    time.Duration // интервал опроса ADD_PRODUCT
	CheckPollInterval  time.Duration // интервал опроса CHECK_PRODUCT
	NotifyPollInterval time.Duration // интервал опроса NOTIFY_PRICE
	ScanInterval       time.Duration // интервал планировщика проверок
	ActionBatchSize    int           // размер пачки действий за один проход
	ScanBatchSize      int           // размер пачки товаров за один проход планировщика
	NotifyTimeout      time.Duration // таймаут отправки одного уведомления
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	catalog, err := loadCatalogCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	monitor, err := loadMonitorCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Db:      db,
		Redis:   redis,
		Kafka:   kafka,
		Minio:   minio,
		Catalog: catalog,
		Monitor: monitor,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultProductTTL   = 3 * time.Minute
	)

	dbStr := getEnvOrDefault("REDIS_DB_ID", strconv.Itoa(defaultDB))
	db, err := strconv.Atoi(dbStr)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ProductTTL:  productTTL,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultWriteTimeout      = 10 * time.Second
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	topic := getEnv("KAFKA_TOPIC")
	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	writeTimeout, err := parseDurationEnv("KAFKA_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		return nil, e.Wrap("KAFKA_WRITE_TIMEOUT", err)
	}

	return &KafkaCfg{
		Brokers:           strings.Split(brokerStr, ","),
		Topic:             topic,
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		WriteTimeout:      writeTimeout,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL          = false
		defaultEndpoint        = "minio:9000"
		defaultDownloadTimeout = 15 * time.Second
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	downloadTimeout, err := parseDurationEnv("IMAGE_DOWNLOAD_TIMEOUT", defaultDownloadTimeout)
	if err != nil {
		log.Errorf(err, "invalid IMAGE_DOWNLOAD_TIMEOUT")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnv("BUCKET_NAME"),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		DownloadTimeout:   downloadTimeout,
	}, nil
}

func loadCatalogCfg() (*CatalogCfg, error) {
	const defaultTimeout = 10 * time.Second

	baseURL := getEnv("CATALOG_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("CATALOG_BASE_URL environment variable is required")
	}

	timeout, err := parseDurationEnv("CATALOG_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, e.Wrap("CATALOG_TIMEOUT", err)
	}

	return &CatalogCfg{
		BaseURL:    baseURL,
		PartnerTag: getEnv("CATALOG_PARTNER_TAG"),
		AccessKey:  getEnv("CATALOG_ACCESS_KEY"),
		SecretKey:  getEnv("CATALOG_SECRET_KEY"),
		Timeout:    timeout,
	}, nil
}

func loadMonitorCfg() (*MonitorCfg, error) {
	const (
		defaultAddPollInterval    = 30 * time.Second
		defaultCheckPollInterval  = 1 * time.Minute
		defaultNotifyPollInterval = 30 * time.Second
		defaultScanInterval       = 5 * time.Minute
		defaultActionBatchSize    = 10
		defaultScanBatchSize      = 25
		defaultNotifyTimeout      = 10 * time.Second
	)

	addInterval, err := parseDurationEnv("ADD_POLL_INTERVAL", defaultAddPollInterval)
	if err != nil {
		return nil, e.Wrap("ADD_POLL_INTERVAL", err)
	}

	checkInterval, err := parseDurationEnv("CHECK_POLL_INTERVAL", defaultCheckPollInterval)
	if err != nil {
		return nil, e.Wrap("CHECK_POLL_INTERVAL", err)
	}

	notifyInterval, err := parseDurationEnv("NOTIFY_POLL_INTERVAL", defaultNotifyPollInterval)
	if err != nil {
		return nil, e.Wrap("NOTIFY_POLL_INTERVAL", err)
	}

	scanInterval, err := parseDurationEnv("SCAN_INTERVAL", defaultScanInterval)
	if err != nil {
		return nil, e.Wrap("SCAN_INTERVAL", err)
	}

	actionBatchSize, err := parseIntEnv("ACTION_BATCH_SIZE", defaultActionBatchSize)
	if err != nil {
		return nil, e.Wrap("ACTION_BATCH_SIZE", err)
	}

	scanBatchSize, err := parseIntEnv("SCAN_BATCH_SIZE", defaultScanBatchSize)
	if err != nil {
		return nil, e.Wrap("SCAN_BATCH_SIZE", err)
	}

	notifyTimeout, err := parseDurationEnv("NOTIFY_TIMEOUT", defaultNotifyTimeout)
	if err != nil {
		return nil, e.Wrap("NOTIFY_TIMEOUT", err)
	}

	return &MonitorCfg{
		AddPollInterval:    addInterval,
		CheckPollInterval:  checkInterval,
		NotifyPollInterval: notifyInterval,
		ScanInterval:       scanInterval,
		ActionBatchSize:    actionBatchSize,
		ScanBatchSize:      scanBatchSize,
		NotifyTimeout:      notifyTimeout,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
