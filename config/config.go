package config

import (
	"flag"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	AppName  = "Rental Service"
	Revision = "1"
)

var (
	// Build time arguments
	AppVersion  string
	Sha1Version string
	BuildTime   string

	// Runtime flags
	profile      *string
	configSource *string
	configUrl    *string
	configBranch *string
	configUser   *string
	configPass   *string
)

type Config struct {
	AppName         string       `json:"appName"         yaml:"appName"`
	AppNameDesc     string       `json:"appNameDesc"     yaml:"appNameDesc"`
	AppVersion      string       `json:"appVersion"      yaml:"appVersion"`
	AppVersionDesc  string       `json:"appVersionDesc"  yaml:"appVersionDesc"`
	Sha1Version     string       `json:"sha1Version"     yaml:"sha1Version"`
	Sha1VersionDesc string       `json:"sha1VersionDesc" yaml:"sha1VersionDesc"`
	BuildTime       string       `json:"buildTime"       yaml:"buildTime"`
	BuildTimeDesc   string       `json:"buildTimeDesc"   yaml:"buildTimeDesc"`
	Profile         string       `json:"profile"         yaml:"profile"`
	ProfileDesc     string       `json:"profileDesc"     yaml:"profileDesc"`
	Revision        string       `json:"revision"        yaml:"revision"`
	RevisionDesc    string       `json:"revisionDesc"    yaml:"revisionDesc"`
	Port            string       `json:"port"            yaml:"port"`
	PortDesc        string       `json:"portDesc"        yaml:"portDesc"`
	Config          ConfigSource `json:"config"          yaml:"config"`
	ConfigDesc      string       `json:"configDesc"      yaml:"configDesc"`
	Log             LogConfig    `json:"log"             yaml:"log"`
	LogDesc         string       `json:"logDesc"         yaml:"logDesc"`
	Db              DbConfig     `json:"db"              yaml:"db"`
	DbDesc          string       `json:"dbDesc"          yaml:"dbDesc"`
	RabbitMQ        QueueConfig  `json:"rabbitmq"        yaml:"rabbitmq"`
	RabbitMQDesc    string       `json:"rabbitmqDesc"    yaml:"rabbitmqDesc"`
	Rental          RentalConfig `json:"rental"          yaml:"rental"`
	RentalDesc      string       `json:"rentalDesc"      yaml:"rentalDesc"`
}

type ConfigSource struct {
	Print      bool   `json:"print"      yaml:"print"`
	PrintDesc  string `json:"printDesc"  yaml:"printDesc"`
	Source     string `json:"source"     yaml:"source"`
	SourceDesc string `json:"sourceDesc" yaml:"source"`
}

type LogConfig struct {
	Level          string `json:"level"      yaml:"level"`
	LevelDesc      string `json:"levelDesc"      yaml:"levelDesc"`
	Structured     bool   `json:"structured" yaml:"structured"`
	StructuredDesc string `json:"structuredDesc" yaml:"structuredDesc"`
}

type DbConfig struct {
	Name        string       `json:"name"        yaml:"name"`
	NameDesc    string       `json:"nameDesc"    yaml:"nameDesc"`
	Host        string       `json:"host"        yaml:"host"`
	HostDesc    string       `json:"hostDesc"    yaml:"hostDesc"`
	Port        string       `json:"port"        yaml:"port"`
	PortDesc    string       `json:"portDesc"    yaml:"portDesc"`
	Migrate     bool         `json:"migrate"     yaml:"migrate"`
	MigrateDesc string       `json:"migrateDesc" yaml:"migrateDesc"`
	Clean       bool         `json:"clean"       yaml:"clean"`
	CleanDesc   string       `json:"cleanDesc"   yaml:"cleanDesc"`
	User        string       `json:"user"        yaml:"user"`
	UserDesc    string       `json:"userDesc"    yaml:"userDesc"`
	Pass        string       `json:"pass"        yaml:"pass"        sensitive:"true"`
	PassDesc    string       `json:"passDesc"    yaml:"passDesc"`
	Pool        DbPoolConfig `json:"pool"        yaml:"pool"`
	PoolDesc    string       `json:"poolDesc"    yaml:"poolDesc"`
}

type DbPoolConfig struct {
	MinSize     int    `json:"minSize"     yaml:"minSize"`
	MinSizeDesc string `json:"minSizeDesc" yaml:"minSizeDesc"`
	MaxSize     int    `json:"maxSize"     yaml:"maxSize"`
	MaxSizeDesc string `json:"maxSizeDesc" yaml:"maxSizeDesc"`
}

type QueueConfig struct {
	Host         string              `json:"host"         yaml:"host"`
	HostDesc     string              `json:"hostDesc"     yaml:"hostDesc"`
	Port         string              `json:"port"         yaml:"port"`
	PortDesc     string              `json:"portDesc"     yaml:"portDesc"`
	User         string              `json:"user"         yaml:"user"`
	UserDesc     string              `json:"userDesc"     yaml:"userDesc"`
	Pass         string              `json:"pass"         yaml:"pass"         sensitive:"true"`
	PassDesc     string              `json:"passDesc"     yaml:"passDesc"`
	Mock         bool                `json:"mock"         yaml:"mock"`
	MockDesc     string              `json:"mockDesc"     yaml:"mockDesc"`
	Stock        StockQueueConfig    `json:"stock"        yaml:"stock"`
	StockDesc    string              `json:"stockDesc"    yaml:"stockDesc"`
	Rental       RentalQueueConfig   `json:"rental"       yaml:"rental"`
	RentalDesc   string              `json:"rentalDesc"   yaml:"rentalDesc"`
	Catalog      CatalogQueueConfig  `json:"catalog"      yaml:"catalog"`
	CatalogDesc  string              `json:"catalogDesc"  yaml:"catalogDesc"`
}

type StockQueueConfig struct {
	LevelExchange        string `json:"levelExchange" yaml:"levelExchange"`
	LevelExchangeDesc    string `json:"levelExchangeDesc" yaml:"levelExchangeDesc"`
	MovementExchange     string `json:"movementExchange" yaml:"movementExchange"`
	MovementExchangeDesc string `json:"movementExchangeDesc" yaml:"movementExchangeDesc"`
}

type RentalQueueConfig struct {
	Exchange     string `json:"exchange" yaml:"exchange"`
	ExchangeDesc string `json:"exchangeDesc" yaml:"exchangeDesc"`
}

type CatalogQueueConfig struct {
	Queue     string                `json:"queue" yaml:"queue"`
	QueueDesc string                `json:"queueDesc" yaml:"queueDesc"`
	Dlt       CatalogQueueDltConfig `json:"dlt" yaml:"dlt"`
	DltDesc   string                `json:"dltDesc" yaml:"dltDesc"`
}

type CatalogQueueDltConfig struct {
	Exchange     string `json:"exchange" yaml:"exchange"`
	ExchangeDesc string `json:"exchangeDesc" yaml:"exchangeDesc"`
}

type RentalConfig struct {
	GraceDays          int     `json:"graceDays"      yaml:"graceDays"`
	GraceDaysDesc      string  `json:"graceDaysDesc"  yaml:"graceDaysDesc"`
	LateMultiplier     float64 `json:"lateMultiplier" yaml:"lateMultiplier"`
	LateMultiplierDesc string  `json:"lateMultiplierDesc" yaml:"lateMultiplierDesc"`
	MaxAttempts        int     `json:"maxAttempts"    yaml:"maxAttempts"`
	MaxAttemptsDesc    string  `json:"maxAttemptsDesc" yaml:"maxAttemptsDesc"`
}

func (c *Config) Print() {
	if c.Config.Print {
		log.Info().Interface("config", c).Msg("the following configurations have successfully loaded")
	}
}

func init() {
	profile = flag.String("p", "local", "profile for the application config")
	configSource = flag.String("s", "local", "where to get configurations from")
	configUrl = flag.String("cfgUrl", "", "url for application config server")
	configBranch = flag.String("cfgBranch", "", "branch to request from the configuration server")
	configUser = flag.String("cfgUser", "", "username to use when connecting to the application server")
	configPass = flag.String("cfgPass", "", "password to use when connecting to the application server")

	viper.SetDefault("port", "8080")
	viper.SetDefault("profile", "local")

	viper.SetDefault("config.print", false)

	viper.SetDefault("log.level", "trace")
	viper.SetDefault("log.structured", false)

	viper.SetDefault("db.name", "rental-db")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "postgres")
	viper.SetDefault("db.pass", "postgres")
	viper.SetDefault("db.clean", false)
	viper.SetDefault("db.pool.minSize", 1)
	viper.SetDefault("db.pool.maxSize", 4)

	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", "5672")
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.pass", "guest")
	viper.SetDefault("rabbitmq.mock", false)
	viper.SetDefault("rabbitmq.stock.levelExchange", "stock.level.exchange")
	viper.SetDefault("rabbitmq.stock.movementExchange", "stock.movement.exchange")
	viper.SetDefault("rabbitmq.rental.exchange", "rental.exchange")
	viper.SetDefault("rabbitmq.catalog.queue", "catalog.queue")
	viper.SetDefault("rabbitmq.catalog.dlt.exchange", "catalog.dlt.exchange")

	viper.SetDefault("rental.graceDays", 0)
	viper.SetDefault("rental.lateMultiplier", 1.5)
	viper.SetDefault("rental.maxAttempts", 3)
}

func Load() *Config {
	config, err := createConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configurations")
	}

	switch *configSource {
	case "local":
		err = loadLocalConfigs(config)
	case "etcd":
		err = loadRemoteConfigs(config)
	default:
		log.Warn().
			Str("configSource", *configSource).
			Msg("unrecognized configuration source, using local")

		err = loadLocalConfigs(config)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configurations")
	}

	return config
}

func createConfig() (config *Config, err error) {
	config = &Config{}
	setDescriptions(config)

	config.Config.Source = *configSource

	config.AppName = AppName
	config.Revision = Revision

	return config, nil
}

func loadLocalConfigs(config *Config) error {
	log.Info().Msg("loading local configurations...")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	err := viper.ReadInConfig()
	if err != nil {
		return err
	}

	err = viper.Unmarshal(config)
	if err != nil {
		return err
	}

	return nil
}

func loadRemoteConfigs(config *Config) error {

	return nil
}

func setDescriptions(config *Config) {
	config.AppNameDesc = "Name of the application in a human readable format. Example: Rental Service"
	config.AppVersionDesc = "Semantic version of the application. Example: v1.2.3"
	config.Sha1VersionDesc = "Git sha1 hash of the application version."
	config.BuildTimeDesc = "When the running binary was compiled."
	config.ProfileDesc = "Running profile of the application, can assist with sensible defaults or change behavior. Examples: local, dev, prod"
	config.RevisionDesc = "A hard coded revision handy for quickly determining if local changes are running. Examples: 1, Two, 9999"
	config.PortDesc = "Port that the application will bind to on startup. Examples: 8080, 3000"
	config.ConfigDesc = "Settings for where and how the application should get its configurations."
	config.LogDesc = "Settings for application logging."
	config.DbDesc = "Database configurations."
	config.RabbitMQDesc = "Rabbit MQ configurations."
	config.RentalDesc = "Business rules for the rental lifecycle."

	config.Config.PrintDesc = "Print configurations on startup."
	config.Config.SourceDesc = "Where the application should go for configurations. Examples: local, etcd"

	config.Log.LevelDesc = "The lowest level that the application should log at. Examples: info, warn, error."
	config.Log.StructuredDesc = "Whether the application should output structured (json) logging, or human friendly plain text."

	config.Db.NameDesc = "The name of the database to connect to."
	config.Db.HostDesc = "Host of the database."
	config.Db.PortDesc = "Port of the database."
	config.Db.MigrateDesc = "Whether or not database migrations should be executed on startup."
	config.Db.CleanDesc = "WARNING: THIS WILL DELETE ALL DATA FROM THE DB. Used only during migration. If clean is true, all 'down' migrations are executed."
	config.Db.UserDesc = "User the application will use to connect to the database."
	config.Db.PassDesc = "Password the application will use for connecting to the database."
	config.Db.PoolDesc = "Connection pool configurations."
	config.Db.Pool.MinSizeDesc = "Minimum number of connections held open in the pool."
	config.Db.Pool.MaxSizeDesc = "Maximum number of connections the pool may open."

	config.RabbitMQ.HostDesc = "RabbitMQ's broker host."
	config.RabbitMQ.PortDesc = "RabbitMQ's broker host port."
	config.RabbitMQ.UserDesc = "User the application will use to connect to RabbitMQ."
	config.RabbitMQ.PassDesc = "Password the application will use to connect to RabbitMQ."
	config.RabbitMQ.MockDesc = "Whether or not the application should mock sending messages to RabbitMQ."
	config.RabbitMQ.StockDesc = "RabbitMQ settings for stock level and movement updates."
	config.RabbitMQ.RentalDesc = "RabbitMQ settings for rental lifecycle updates."
	config.RabbitMQ.CatalogDesc = "RabbitMQ settings for catalog updates."
	config.RabbitMQ.Stock.LevelExchangeDesc = "RabbitMQ exchange to use for posting stock level updates."
	config.RabbitMQ.Stock.MovementExchangeDesc = "RabbitMQ exchange to use for posting stock ledger entries."
	config.RabbitMQ.Rental.ExchangeDesc = "RabbitMQ exchange to use for posting rental lifecycle updates."
	config.RabbitMQ.Catalog.QueueDesc = "Queue used for listening to item updates coming from the upstream catalog system."
	config.RabbitMQ.Catalog.DltDesc = "Configurations for the catalog dead letter topic, where messages that fail to be read from the queue are written."
	config.RabbitMQ.Catalog.Dlt.ExchangeDesc = "Exchange used for posting messages to the dead letter topic."

	config.Rental.GraceDaysDesc = "Days past the scheduled return date before late fees begin to accrue."
	config.Rental.LateMultiplierDesc = "Multiplier applied to the daily rate when computing late fees."
	config.Rental.MaxAttemptsDesc = "How many optimistic locking attempts a stock write gets before reporting a conflict."
}
