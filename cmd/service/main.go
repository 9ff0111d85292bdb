package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lumeapp/payments-backend/api"
	"github.com/lumeapp/payments-backend/db"
	"github.com/lumeapp/payments-backend/log"
	"github.com/lumeapp/payments-backend/stripe"
)

func main() {
	// load a local .env if present, real deployments set the environment
	_ = godotenv.Load()
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 8080, "listen port")
	flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.String("mongo-url", "", "The URL of the MongoDB server")
	flag.String("mongo-db", "payments", "The name of the MongoDB database")
	flag.String("web-app-url", "", "The base URL of the web client, used for redirects and CORS")
	flag.String("stripe-api-secret", "", "Stripe API secret key")
	flag.String("stripe-webhook-secret", "", "Stripe webhook signing secret")
	flag.String("stripe-weekly-price-id", "", "Stripe price ID for the weekly plan")
	flag.String("stripe-lifetime-price-id", "", "Stripe price ID for the lifetime plan")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("LUME")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	// read the configuration
	log.Init(viper.GetString("log-level"), "stdout")
	host := viper.GetString("host")
	port := viper.GetInt("port")
	webAppURL := viper.GetString("web-app-url")
	mongoURL := viper.GetString("mongo-url")
	mongoDB := viper.GetString("mongo-db")
	if mongoURL == "" {
		log.Fatal("mongo-url is required")
	}
	stripeConfig, err := stripe.NewConfig(
		viper.GetString("stripe-api-secret"),
		viper.GetString("stripe-webhook-secret"),
		webAppURL,
		viper.GetString("stripe-weekly-price-id"),
		viper.GetString("stripe-lifetime-price-id"),
	)
	if err != nil {
		log.Fatalf("invalid stripe configuration: %v", err)
	}
	// initialize the MongoDB database
	database, err := db.New(mongoURL, mongoDB)
	if err != nil {
		log.Fatalf("could not create the MongoDB database: %v", err)
	}
	defer database.Close()
	// create the stripe service
	stripeService, err := stripe.NewService(stripeConfig, database)
	if err != nil {
		log.Fatalf("could not create the stripe service: %v", err)
	}
	// create the local API server
	api.New(&api.Config{
		Host:      host,
		Port:      port,
		WebAppURL: webAppURL,
		DB:        database,
		Stripe:    stripeService,
	}).Start()
	// wait forever, as the server is running in a goroutine
	log.Infow("server started", "host", host, "port", port)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
