package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Signaling SignalingConfig `mapstructure:"signaling"`
	Call      CallConfig      `mapstructure:"call"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type SignalingConfig struct {
	URL               string `mapstructure:"url"`
	UserID            string `mapstructure:"user_id"`
	Token             string `mapstructure:"token"`
	ReconnectAttempts int    `mapstructure:"reconnect_attempts"`
	ReconnectDelay    string `mapstructure:"reconnect_delay"`
}

type CallConfig struct {
	RingTimeout string      `mapstructure:"ring_timeout"`
	STUNServers []string    `mapstructure:"stun_servers"`
	UDPPortMin  uint16      `mapstructure:"udp_port_min"`
	UDPPortMax  uint16      `mapstructure:"udp_port_max"`
	Microphone  bool        `mapstructure:"microphone"`
	Camera      bool        `mapstructure:"camera"`
	Audio       AudioConfig `mapstructure:"audio"`
}

type AudioConfig struct {
	InputDeviceName  string `mapstructure:"input_device_name"`
	OutputDeviceName string `mapstructure:"output_device_name"`
	SampleRate       int    `mapstructure:"sample_rate"`
	Channels         int    `mapstructure:"channels"`
	BitsPerSample    int    `mapstructure:"bits_per_sample"`
	CaptureChunkMs   int    `mapstructure:"capture_chunk_ms"`
	PlaybackChunkMs  int    `mapstructure:"playback_chunk_ms"`
}

type AuthConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenExpiry string `mapstructure:"token_expiry"`
}

var AppConfig Config

func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Config file not found, using defaults. Error: %v", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	if AppConfig.Server.Port == "" {
		AppConfig.Server.Port = ":8090"
	}
	if AppConfig.Signaling.ReconnectAttempts <= 0 {
		AppConfig.Signaling.ReconnectAttempts = 5
	}
	if AppConfig.Signaling.ReconnectDelay == "" {
		AppConfig.Signaling.ReconnectDelay = "1s"
	}
	if len(AppConfig.Call.STUNServers) == 0 {
		AppConfig.Call.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}
	if AppConfig.Call.RingTimeout == "" {
		AppConfig.Call.RingTimeout = "45s"
	}
	if !viper.IsSet("call.microphone") {
		AppConfig.Call.Microphone = true
	}
	if AppConfig.Call.Audio.SampleRate <= 0 {
		AppConfig.Call.Audio.SampleRate = 8000
	}
	if AppConfig.Call.Audio.Channels <= 0 {
		AppConfig.Call.Audio.Channels = 1
	}
	if AppConfig.Call.Audio.BitsPerSample <= 0 {
		AppConfig.Call.Audio.BitsPerSample = 16
	}
	if AppConfig.Call.Audio.CaptureChunkMs <= 0 {
		AppConfig.Call.Audio.CaptureChunkMs = 40
	}
	if AppConfig.Call.Audio.PlaybackChunkMs <= 0 {
		AppConfig.Call.Audio.PlaybackChunkMs = 100
	}
	if AppConfig.Auth.TokenExpiry == "" {
		AppConfig.Auth.TokenExpiry = "24h"
	}

	log.Println("Configuration loaded successfully")
}

// RingTimeoutDuration parses call.ring_timeout, falling back to 45s.
func (c CallConfig) RingTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.RingTimeout); err == nil && d > 0 {
		return d
	}
	return 45 * time.Second
}

// ReconnectDelayDuration parses signaling.reconnect_delay, falling back to 1s.
func (s SignalingConfig) ReconnectDelayDuration() time.Duration {
	if d, err := time.ParseDuration(s.ReconnectDelay); err == nil && d > 0 {
		return d
	}
	return time.Second
}
