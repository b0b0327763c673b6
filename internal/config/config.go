package config

import (
	"encoding/json"
	"errors"
	"os"
)

type Config struct {
	Database struct {
		Host               string `json:"host"`
		Port               uint64 `json:"port"`
		Username           string `json:"username"`
		Password           string `json:"password"`
		Database           string `json:"database"`
		UseTLS             bool   `json:"use_tls"`
		ConnectTimeout     string `json:"connect_timeout"`
		SocketTimeout      string `json:"socket_timeout"`
		ConnectIdleTimeout string `json:"connect_idle_timeout"`
		OperationTimeout   string `json:"operation_timeout"`
		Heartbeat          string `json:"heartbeat"`
		MinPoolSize        uint64 `json:"min_pool_size"`
		MaxPoolSize        uint64 `json:"max_pool_size"`
	} `json:"database"`
	Webhook struct {
		URL         string `json:"url"`
		BearerToken string `json:"bearer_token"`
		Timeout     string `json:"timeout"`
	} `json:"webhook"`
	LLM struct {
		BaseURL string `json:"base_url"`
		APIKey  string `json:"api_key"`
		Model   string `json:"model"`
		Timeout string `json:"timeout"`
	} `json:"llm"`
	Suggest struct {
		ClientBuffer      int    `json:"client_buffer"`
		HeartbeatInterval string `json:"heartbeat_interval"`
	} `json:"suggest"`
	UseMemoryStore bool   `json:"use_memory_store"`
	DebugMode      bool   `json:"debug_mode"`
	AppName        string `json:"app_name"`
	AppPort        int    `json:"app_port"`
}

var config Config
var initialized = false

func ReadConfig() (Config, error) {
	bytes, err := os.ReadFile("config.json")

	if err != nil {
		writer, _ := os.OpenFile("config.json", os.O_RDONLY|os.O_CREATE, 0777)
		data, _ := json.MarshalIndent(config, "", "\t")
		_, _ = writer.Write(data)
		_ = writer.Close()
		return config, errors.New("the configuration file does not exist and has been created. Please try again after editing the configuration file")
	}

	err = json.Unmarshal(bytes, &config)

	if err != nil {
		return config, errors.New("the configuration file does not contain valid JSON")
	}

	applyDefaults(&config)
	initialized = true
	return config, nil
}

func applyDefaults(c *Config) {
	if c.AppPort == 0 {
		c.AppPort = 3000
	}
	if c.Suggest.ClientBuffer == 0 {
		c.Suggest.ClientBuffer = 16
	}
	if c.Suggest.HeartbeatInterval == "" {
		c.Suggest.HeartbeatInterval = "30s"
	}
	if c.Webhook.Timeout == "" {
		c.Webhook.Timeout = "30s"
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = "60s"
	}
}

func GetConfig() (Config, error) {
	if initialized {
		return config, nil
	}
	return ReadConfig()
}
