package main

import "time"

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	ActorsDSN            string        `env:"ACTORS_DSN,required=true"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	TypingDebounce       time.Duration `env:"TYPING_DEBOUNCE,default=1s"`
	SocketBufferSize     int           `env:"SOCKET_BUFFER_SIZE,default=64"`
	BackboneBufferSize   int           `env:"BACKBONE_BUFFER_SIZE,default=1024"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=5s"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=30s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	CorsOrigins          string        `env:"CORS_ORIGINS,default=*"`
	Backbone             string        `env:"BACKBONE,default=local"`
	ZmqPubEndpoint       string        `env:"ZMQ_PUB_ENDPOINT,default=tcp://*:5560"`
	ZmqPeers             string        `env:"ZMQ_PEERS"`
	WsInsecureSkipVerify bool          `env:"WS_INSECURE_SKIP_VERIFY,default=false"`
}
